package utils

import (
	"testing"

	"wheelshare-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSplitCharges(t *testing.T) {
	t.Run("Whole percentages", func(t *testing.T) {
		cfg := &domain.ChargeConfig{PlatformPercent: 10, HostPercent: 70, AdminPercent: 20}
		charges, err := SplitCharges(10000, cfg)
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), charges.PlatformFeeCents)
		assert.Equal(t, int64(7000), charges.HostCommissionCents)
		assert.Equal(t, int64(2000), charges.AdminCommissionCents)
	})

	t.Run("Fractional percentages", func(t *testing.T) {
		cfg := &domain.ChargeConfig{PlatformPercent: 0.1, HostPercent: 0.7, AdminPercent: 0.2}
		charges, err := SplitCharges(10000, cfg)
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), charges.PlatformFeeCents)
	})

	t.Run("Invalid sum", func(t *testing.T) {
		cfg := &domain.ChargeConfig{PlatformPercent: 10, HostPercent: 70, AdminPercent: 10}
		_, err := SplitCharges(10000, cfg)
		assert.ErrorIs(t, err, domain.ErrInvalidChargeConfig)
	})

	t.Run("Closure holds under rounding", func(t *testing.T) {
		cfg := &domain.ChargeConfig{PlatformPercent: 33.33, HostPercent: 33.33, AdminPercent: 33.34}
		for _, total := range []int64{1, 3, 99, 101, 9999, 12345, 1000001} {
			charges, err := SplitCharges(total, cfg)
			assert.NoError(t, err)
			sum := charges.PlatformFeeCents + charges.HostCommissionCents + charges.AdminCommissionCents
			assert.Equal(t, total, sum, "split of %d must sum exactly", total)
		}
	})
}
