package repository

import (
	"context"
	"time"

	"wheelshare-backend/internal/domain"
)

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// BookingRepository persists bookings. All state-changing updates are
// compare-and-swap on the current status: they report whether a row matched,
// and a zero-row match means "already transitioned", not an error.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByHost(ctx context.Context, hostID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error)

	// LastNumberForYear returns the most recently issued booking number with
	// the given prefix and year, or "" when none has been issued yet.
	LastNumberForYear(ctx context.Context, prefix string, year int) (string, error)

	// FindOverlapping returns bookings on the vehicle in CONFIRMED or ONGOING
	// status whose [from_date, to_date) interval overlaps [from, to).
	// excludeID > 0 skips that booking row (re-validation on approval).
	FindOverlapping(ctx context.Context, vehicleID int64, from, to time.Time, excludeID int64) ([]domain.Booking, error)

	UpdateIfStatus(ctx context.Context, id int64, expected, next domain.BookingStatus) (bool, error)
	SetTransactionID(ctx context.Context, id, transactionID int64) error
	Cancel(ctx context.Context, id int64, from []domain.BookingStatus, byHost bool) (bool, error)
	MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkCheckedOut(ctx context.Context, id int64, at, depositRefundableAt time.Time) (bool, error)
	MarkDepositRefunded(ctx context.Context, id int64) (bool, error)
	// ApplyExtension moves the end date forward and appends the history entry;
	// it matches only CONFIRMED or ONGOING rows whose to_date still equals the
	// entry's previous end date, making duplicate webhook delivery a no-op.
	ApplyExtension(ctx context.Context, id int64, entry domain.ExtendEntry) (bool, error)

	ListEligibleForCheckIn(ctx context.Context, now time.Time) ([]domain.Booking, error)
	ListEligibleForCheckOut(ctx context.Context, now time.Time) ([]domain.Booking, error)
	ListDepositRefundable(ctx context.Context, now time.Time) ([]domain.Booking, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Transaction, error)
	// MarkSuccess is a CAS on INITIATED; false means the transaction was
	// already settled (duplicate webhook).
	MarkSuccess(ctx context.Context, id int64, intentID string, charges domain.Charges) (bool, error)
	SetHostTransferID(ctx context.Context, id int64, transferID string) error
	SetRefundID(ctx context.Context, id int64, refundID string) error
	// ListAwaitingTransfer returns settled transactions of COMPLETED bookings
	// whose host commission has not been transferred yet. Failed transfers stay
	// in this set and are retried on the next sweep.
	ListAwaitingTransfer(ctx context.Context) ([]domain.Transaction, error)
}

// ChargeConfigRepository stores the singleton commission split, updated by
// admin action and read on every settlement calculation.
type ChargeConfigRepository interface {
	Get(ctx context.Context) (*domain.ChargeConfig, error)
	Update(ctx context.Context, cfg *domain.ChargeConfig) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}
