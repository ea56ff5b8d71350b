package service

import (
	"context"
	"database/sql"
	"errors"

	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/repository"
	"wheelshare-backend/internal/utils"
)

type adminService struct {
	chargeRepo repository.ChargeConfigRepository
	cfg        *config.Config
}

func NewAdminService(chargeRepo repository.ChargeConfigRepository, cfg *config.Config) AdminService {
	return &adminService{chargeRepo: chargeRepo, cfg: cfg}
}

func (s *adminService) GetChargeConfig(ctx context.Context) (*domain.ChargeConfig, error) {
	stored, err := s.chargeRepo.Get(ctx)
	if err == nil {
		return stored, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ChargeConfig{
			PlatformPercent: s.cfg.Charges.PlatformPercent,
			HostPercent:     s.cfg.Charges.HostPercent,
			AdminPercent:    s.cfg.Charges.AdminPercent,
		}, nil
	}
	return nil, err
}

func (s *adminService) UpdateChargeConfig(ctx context.Context, platform, host, admin float64) (*domain.ChargeConfig, error) {
	cfg := &domain.ChargeConfig{
		PlatformPercent: platform,
		HostPercent:     host,
		AdminPercent:    admin,
	}
	if err := utils.ValidateChargeConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.chargeRepo.Update(ctx, cfg); err != nil {
		return nil, err
	}
	logger.Info("charge config updated",
		"platform_percent", platform, "host_percent", host, "admin_percent", admin)
	return cfg, nil
}
