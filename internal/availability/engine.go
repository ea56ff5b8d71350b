package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wheelshare-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// BookingSource supplies the existing bookings that can conflict with a
// requested range.
type BookingSource interface {
	FindOverlapping(ctx context.Context, vehicleID int64, from, to time.Time, excludeID int64) ([]domain.Booking, error)
}

// VehicleSource supplies vehicle records for the calendar view.
type VehicleSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// Engine answers hour-granularity availability questions for a vehicle. All
// weekday and hour derivation happens in the vehicle's own time zone, because
// host-configured operating hours are wall-clock times.
type Engine struct {
	vehicles VehicleSource
	bookings BookingSource
}

func NewEngine(vehicles VehicleSource, bookings BookingSource) *Engine {
	return &Engine{vehicles: vehicles, bookings: bookings}
}

// hourSlot is a single hour of a vehicle-local calendar day.
type hourSlot struct {
	date string // yyyy-mm-dd
	hour int    // 0-23
}

// expandHours decomposes the half-open interval [from, to) into the local
// hour slots it occupies. The slot containing `from` is included even when
// `from` is not on an hour boundary; the slot starting at `to` is not,
// because the interval excludes its end.
func expandHours(from, to time.Time, loc *time.Location) []hourSlot {
	var slots []hourSlot
	t := from.In(loc)
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	for t.Before(to) {
		slots = append(slots, hourSlot{date: t.Format(dateLayout), hour: t.Hour()})
		t = t.Add(time.Hour)
	}
	return slots
}

// parseHour accepts "HH:00"/"HH:MM" opening-hour strings and returns the hour.
func parseHour(s string) (int, error) {
	h, _, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		h = strings.TrimSpace(s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	return hour, nil
}

// openHours builds the set of hours the vehicle is open on any operating day:
// the explicit hour list wins, then the default [start, end) range, then 24h.
func openHours(v *domain.Vehicle) (map[int]bool, error) {
	open := make(map[int]bool, 24)

	if len(v.AvailableHours) > 0 {
		for _, s := range v.AvailableHours {
			h, err := parseHour(s)
			if err != nil {
				return nil, fmt.Errorf("vehicle %d available_hours: %w", v.ID, err)
			}
			open[h] = true
		}
		return open, nil
	}

	if v.DefaultStartTime != "" && v.DefaultEndTime != "" {
		start, err := parseHour(v.DefaultStartTime)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d default_start_time: %w", v.ID, err)
		}
		end, err := parseHour(v.DefaultEndTime)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d default_end_time: %w", v.ID, err)
		}
		for h := start; h < end; h++ {
			open[h] = true
		}
		return open, nil
	}

	for h := 0; h < 24; h++ {
		open[h] = true
	}
	return open, nil
}

func blockedReasons(v *domain.Vehicle) map[string]string {
	blocked := make(map[string]string, len(v.BlockedDates))
	for _, b := range v.BlockedDates {
		blocked[b.Date] = b.Reason
	}
	return blocked
}

func weekdayAllowed(v *domain.Vehicle, day time.Weekday) bool {
	if len(v.AvailableDays) == 0 {
		return true
	}
	for _, d := range v.AvailableDays {
		if d == day {
			return true
		}
	}
	return false
}

// CheckRange runs the strict, all-or-nothing validation of [from, to) against
// the vehicle's blocks, operating days/hours, and existing CONFIRMED/ONGOING
// bookings. excludeBookingID > 0 ignores that booking's own row, used when
// re-validating an existing booking at approval time. The first violation
// anywhere in the range aborts the whole operation.
func (e *Engine) CheckRange(ctx context.Context, vehicle *domain.Vehicle, from, to time.Time, excludeBookingID int64) error {
	loc, err := vehicle.Location()
	if err != nil {
		return err
	}

	requested := expandHours(from, to, loc)
	if len(requested) == 0 {
		return fmt.Errorf("requested range [%s, %s) is empty", from, to)
	}

	open, err := openHours(vehicle)
	if err != nil {
		return err
	}
	blocked := blockedReasons(vehicle)

	// Group requested hours by local date, preserving chronological order.
	var dates []string
	byDate := make(map[string][]int)
	for _, s := range requested {
		if _, ok := byDate[s.date]; !ok {
			dates = append(dates, s.date)
		}
		byDate[s.date] = append(byDate[s.date], s.hour)
	}

	// One fetch covers every day the range touches; each existing booking is
	// expanded into the same local hour slots for exact comparison.
	windowStart := requested[0].timeIn(loc)
	existing, err := e.bookings.FindOverlapping(ctx, vehicle.ID, windowStart, to, excludeBookingID)
	if err != nil {
		return fmt.Errorf("fetch overlapping bookings: %w", err)
	}
	booked := make(map[hourSlot]bool)
	for _, b := range existing {
		for _, s := range expandHours(b.FromDate, b.ToDate, loc) {
			booked[s] = true
		}
	}

	for _, date := range dates {
		if reason, isBlocked := blocked[date]; isBlocked {
			return &domain.SlotUnavailableError{Date: date, Hour: -1, Reason: domain.ConflictBlocked, Detail: reason}
		}

		day, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", date, err)
		}
		if !weekdayAllowed(vehicle, day.Weekday()) {
			return &domain.SlotUnavailableError{Date: date, Hour: -1, Reason: domain.ConflictOutsideHours}
		}

		for _, hour := range byDate[date] {
			if !open[hour] {
				return &domain.SlotUnavailableError{Date: date, Hour: hour, Reason: domain.ConflictOutsideHours}
			}
			if booked[hourSlot{date: date, hour: hour}] {
				return &domain.SlotUnavailableError{Date: date, Hour: hour, Reason: domain.ConflictAlreadyBooked}
			}
		}
	}

	return nil
}

func (s hourSlot) timeIn(loc *time.Location) time.Time {
	day, _ := time.ParseInLocation(dateLayout, s.date, loc)
	return day.Add(time.Duration(s.hour) * time.Hour)
}

// SlotStatus describes one calendar hour in the day view.
type SlotStatus string

const (
	SlotAvailable    SlotStatus = "available"
	SlotInactive     SlotStatus = "inactive"
	SlotBlocked      SlotStatus = "blocked"
	SlotClosed       SlotStatus = "closed"        // weekday excluded
	SlotOutsideHours SlotStatus = "outside-hours" // outside operating hours
	SlotBooked       SlotStatus = "booked"
)

// Slot is one hour of the 24-entry calendar returned to UI consumers.
type Slot struct {
	Hour      int        `json:"hour"`
	Available bool       `json:"available"`
	Status    SlotStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

// DayCalendar produces the full 24-slot view of a vehicle-local calendar
// date ("2006-01-02"). The same precedence as the strict check applies, but
// violations are described per slot instead of aborting.
func (e *Engine) DayCalendar(ctx context.Context, vehicleID int64, date string) ([]Slot, error) {
	vehicle, err := e.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	loc, err := vehicle.Location()
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	fill := func(status SlotStatus, reason string) []Slot {
		slots := make([]Slot, 24)
		for h := range slots {
			slots[h] = Slot{Hour: h, Status: status, Reason: reason}
		}
		return slots
	}

	if !vehicle.IsActive {
		return fill(SlotInactive, ""), nil
	}
	if reason, isBlocked := blockedReasons(vehicle)[date]; isBlocked {
		return fill(SlotBlocked, reason), nil
	}
	if !weekdayAllowed(vehicle, day.Weekday()) {
		return fill(SlotClosed, ""), nil
	}

	open, err := openHours(vehicle)
	if err != nil {
		return nil, err
	}

	existing, err := e.bookings.FindOverlapping(ctx, vehicleID, day, day.Add(24*time.Hour), 0)
	if err != nil {
		return nil, fmt.Errorf("fetch overlapping bookings: %w", err)
	}
	booked := make(map[hourSlot]bool)
	for _, b := range existing {
		for _, s := range expandHours(b.FromDate, b.ToDate, loc) {
			booked[s] = true
		}
	}

	slots := make([]Slot, 24)
	for h := 0; h < 24; h++ {
		switch {
		case !open[h]:
			slots[h] = Slot{Hour: h, Status: SlotOutsideHours}
		case booked[hourSlot{date: date, hour: h}]:
			slots[h] = Slot{Hour: h, Status: SlotBooked}
		default:
			slots[h] = Slot{Hour: h, Available: true, Status: SlotAvailable}
		}
	}
	return slots, nil
}
