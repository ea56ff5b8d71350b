package utils

import (
	"math"

	"wheelshare-backend/internal/domain"
)

// chargeEpsilon is the tolerance when validating that the three normalized
// commission fractions sum to 1.
const chargeEpsilon = 1e-6

// SplitCharges derives the platform/host/admin commission amounts for a
// settled total. Percentages above 1 are treated as whole percentages.
// The platform fee and host commission are rounded to the cent independently;
// the admin commission is the remainder, so the three parts always sum
// exactly to totalCents.
func SplitCharges(totalCents int64, cfg *domain.ChargeConfig) (domain.Charges, error) {
	platform := normalizePercent(cfg.PlatformPercent)
	host := normalizePercent(cfg.HostPercent)
	admin := normalizePercent(cfg.AdminPercent)

	if math.Abs(platform+host+admin-1) > chargeEpsilon {
		return domain.Charges{}, domain.ErrInvalidChargeConfig
	}

	platformFee := roundCents(float64(totalCents) * platform)
	hostCommission := roundCents(float64(totalCents) * host)

	return domain.Charges{
		PlatformFeeCents:     platformFee,
		HostCommissionCents:  hostCommission,
		AdminCommissionCents: totalCents - platformFee - hostCommission,
	}, nil
}

// ValidateChargeConfig checks that the three percentages sum to 100%.
func ValidateChargeConfig(cfg *domain.ChargeConfig) error {
	_, err := SplitCharges(0, cfg)
	return err
}

func normalizePercent(p float64) float64 {
	if p > 1 {
		return p / 100
	}
	return p
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
