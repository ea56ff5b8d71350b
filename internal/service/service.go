package service

import (
	"context"
	"time"

	"wheelshare-backend/internal/availability"
	"wheelshare-backend/internal/domain"
)

type BookingService interface {
	// CreateBooking validates availability over [from, to), prices the rental,
	// and persists the booking in REQUESTED status (CONFIRMED for self-bookings).
	CreateBooking(ctx context.Context, renterID, vehicleID int64, from, to time.Time) (*domain.Booking, error)
	// ApproveBooking re-runs the availability check and moves the booking to
	// PENDING, opening a payment checkout session. Returns the checkout URL.
	ApproveBooking(ctx context.Context, hostID, bookingID int64) (*domain.Booking, string, error)
	// CancelBooking marks the booking cancelled by the given actor and returns
	// the refund percentage the renter is owed (executed by the payment
	// reversal flow, not here).
	CancelBooking(ctx context.Context, actorID int64, role domain.ActorRole, bookingID int64) (*domain.Booking, int, error)
	// ExtendBooking prices and initiates a paid end-date extension. Self-booking
	// extensions apply immediately; paid ones apply when the payment settles.
	ExtendBooking(ctx context.Context, renterID, bookingID int64, newTo time.Time) (*domain.Booking, string, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64, role domain.ActorRole, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// GetAvailability returns the 24-slot calendar for a vehicle-local date.
	GetAvailability(ctx context.Context, vehicleID int64, date string) ([]availability.Slot, error)
}

type SettlementService interface {
	// OnPaymentSucceeded is the webhook entry point. Duplicate delivery of the
	// same event is a no-op.
	OnPaymentSucceeded(ctx context.Context, providerSessionID, providerIntentID string) error
	// RunTick applies every due automatic transition: check-ins, check-outs,
	// deposit refunds, and host payouts. Per-booking failures are logged and
	// do not abort the sweep.
	RunTick(ctx context.Context, now time.Time) error
}

type AdminService interface {
	GetChargeConfig(ctx context.Context) (*domain.ChargeConfig, error)
	// UpdateChargeConfig replaces the commission split; the three percentages
	// must sum to 100%.
	UpdateChargeConfig(ctx context.Context, platform, host, admin float64) (*domain.ChargeConfig, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
}

// Notifier delivers fire-and-forget booking notifications. Implementations
// must never fail the calling operation; delivery errors are logged.
type Notifier interface {
	BookingRequested(ctx context.Context, booking *domain.Booking, vehicleName string)
	PaymentRequested(ctx context.Context, booking *domain.Booking, checkoutURL string)
	BookingConfirmed(ctx context.Context, booking *domain.Booking)
	BookingCancelled(ctx context.Context, booking *domain.Booking, by domain.ActorRole)
	BookingStarted(ctx context.Context, booking *domain.Booking)
	BookingCompleted(ctx context.Context, booking *domain.Booking)
	BookingExtended(ctx context.Context, booking *domain.Booking, newTo time.Time)
	DepositRefunded(ctx context.Context, booking *domain.Booking)
}
