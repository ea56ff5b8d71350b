package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrVehicleNotFound is returned when the referenced vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrBookingNotFound is returned when the referenced booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrTransactionNotFound is returned when no transaction matches the lookup.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUnauthorized is returned when the actor does not own the resource or
	// holds the wrong role for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when a transition is attempted from a status
	// that does not permit it.
	ErrInvalidState = errors.New("invalid booking state for this operation")

	// ErrInvalidExtension is returned when an extension is not a forward,
	// whole-hour move of the end date.
	ErrInvalidExtension = errors.New("extension must move the end date forward by whole hours")

	// ErrInvalidChargeConfig is returned when the commission percentages do not
	// sum to 100%.
	ErrInvalidChargeConfig = errors.New("charge percentages must sum to 100%")

	// ErrSlotUnavailable is the kind all availability conflicts wrap; use
	// errors.As with *SlotUnavailableError for the offending date/hour.
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// ConflictReason classifies why a requested hour cannot be booked.
type ConflictReason string

const (
	ConflictBlocked       ConflictReason = "blocked"
	ConflictOutsideHours  ConflictReason = "outside-hours"
	ConflictAlreadyBooked ConflictReason = "already-booked"
)

// SlotUnavailableError reports the first violation found in a requested range.
type SlotUnavailableError struct {
	Date   string // yyyy-mm-dd, vehicle-local
	Hour   int    // 0-23, vehicle-local; -1 for whole-day conflicts
	Reason ConflictReason
	Detail string // host-provided block reason, when present
}

func (e *SlotUnavailableError) Error() string {
	if e.Hour < 0 {
		return fmt.Sprintf("slot unavailable on %s: %s", e.Date, e.Reason)
	}
	return fmt.Sprintf("slot unavailable on %s at hour %02d: %s", e.Date, e.Hour, e.Reason)
}

func (e *SlotUnavailableError) Unwrap() error { return ErrSlotUnavailable }
