package utils

import (
	"fmt"
	"time"

	"wheelshare-backend/internal/domain"
)

// Pricing is pure integer-cents arithmetic: no I/O, no clock reads, and
// reproducible to the cent for the same inputs.

// FirstBookingAmount computes the initial rental charge for the half-open
// interval [from, to) plus the vehicle deposit.
//
// Billed hours are rounded up to the next whole hour. Anything under 24 hours
// is charged as exactly one day. Beyond that, full days bill at the daily
// price; a remainder above 12 hours rounds up to one more full day, otherwise
// it is pro-rated at dailyPrice/24 per hour.
func FirstBookingAmount(from, to time.Time, dailyPriceCents, depositCents int64) (int64, error) {
	if !to.After(from) {
		return 0, fmt.Errorf("booking end %s must be after start %s", to, from)
	}

	d := to.Sub(from)
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}

	// Minimum charge is one full day.
	if hours < 24 {
		return dailyPriceCents + depositCents, nil
	}

	fullDays := hours / 24
	remHours := hours % 24

	var remCharge int64
	if remHours > 12 {
		fullDays++
	} else {
		remCharge = prorateHours(dailyPriceCents, remHours)
	}

	return fullDays*dailyPriceCents + remCharge + depositCents, nil
}

// ExtensionAmount computes the charge for moving a booking's end date from
// oldTo to newTo. The extension must be forward and a whole number of hours;
// no deposit is re-charged.
func ExtensionAmount(oldTo, newTo time.Time, dailyPriceCents int64) (int64, error) {
	d := newTo.Sub(oldTo)
	if d <= 0 || d%time.Hour != 0 {
		return 0, domain.ErrInvalidExtension
	}
	return prorateHours(dailyPriceCents, int64(d/time.Hour)), nil
}

// prorateHours bills hours at dailyPriceCents/24 each, rounded half-up to the
// cent.
func prorateHours(dailyPriceCents, hours int64) int64 {
	return (dailyPriceCents*hours + 12) / 24
}
