package postgres

import (
	"context"
	"database/sql"
	"time"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/repository"
)

type chargeConfigRepository struct {
	db *sql.DB
}

func NewChargeConfigRepository(db *sql.DB) repository.ChargeConfigRepository {
	return &chargeConfigRepository{db: db}
}

func (r *chargeConfigRepository) Get(ctx context.Context) (*domain.ChargeConfig, error) {
	cfg := &domain.ChargeConfig{}
	query := `SELECT platform_percent, host_percent, admin_percent, updated_on
	          FROM charge_config WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&cfg.PlatformPercent, &cfg.HostPercent, &cfg.AdminPercent, &cfg.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *chargeConfigRepository) Update(ctx context.Context, cfg *domain.ChargeConfig) error {
	query := `INSERT INTO charge_config (id, platform_percent, host_percent, admin_percent, updated_on)
	          VALUES (1, $1, $2, $3, $4)
	          ON CONFLICT (id) DO UPDATE
	          SET platform_percent=$1, host_percent=$2, admin_percent=$3, updated_on=$4`
	_, err := r.db.ExecContext(ctx, query,
		cfg.PlatformPercent, cfg.HostPercent, cfg.AdminPercent, time.Now(),
	)
	return err
}
