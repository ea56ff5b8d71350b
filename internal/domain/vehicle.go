package domain

import (
	"fmt"
	"time"
)

// BlockedDate is a full-day host-imposed block on a vehicle.
type BlockedDate struct {
	Date   string `json:"date"` // yyyy-mm-dd in the vehicle's local zone
	Reason string `json:"reason"`
}

type Vehicle struct {
	ID              int64          `json:"id"`
	HostID          int64          `json:"host_id"`
	Name            string         `json:"name"`
	IsActive        bool           `json:"is_active"`
	DailyPriceCents int64          `json:"daily_price_cents"`
	DepositCents    int64          `json:"deposit_cents"`
	// AvailableDays restricts rentals to the listed weekdays. Empty = all days.
	AvailableDays []time.Weekday `json:"available_days,omitempty"`
	// AvailableHours is an explicit list of opening hours ("09:00", "10:00", ...).
	// When empty, [DefaultStartTime, DefaultEndTime) applies; when those are also
	// empty the vehicle is open 24h.
	AvailableHours   []string      `json:"available_hours,omitempty"`
	DefaultStartTime string        `json:"default_start_time,omitempty"` // "HH:MM"
	DefaultEndTime   string        `json:"default_end_time,omitempty"`   // "HH:MM"
	BlockedDates     []BlockedDate `json:"blocked_dates,omitempty"`
	// Timezone is the IANA zone all weekday/hour checks are evaluated in.
	// Empty falls back to UTC.
	Timezone  string    `json:"timezone,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Location resolves the vehicle's time zone. An empty zone means UTC; an
// unknown zone is an error, because every availability decision depends on
// the wall clock it names.
func (v *Vehicle) Location() (*time.Location, error) {
	if v.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return nil, fmt.Errorf("vehicle %d has invalid timezone %q: %w", v.ID, v.Timezone, err)
	}
	return loc, nil
}
