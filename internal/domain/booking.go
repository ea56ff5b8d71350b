package domain

import "time"

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusOngoing   BookingStatus = "ONGOING"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ExtendEntry is one append-only record of a paid end-date extension.
type ExtendEntry struct {
	PrevToDate    time.Time `json:"prev_to_date"`
	NewToDate     time.Time `json:"new_to_date"`
	TransactionID int64     `json:"transaction_id"`
	AmountCents   int64     `json:"amount_cents"`
	ExtendedAt    time.Time `json:"extended_at"`
}

type Booking struct {
	ID       int64 `json:"id"`
	// Number is the human-readable year-scoped identifier, e.g. "BK-2025-0042".
	Number        string `json:"number"`
	VehicleID     int64  `json:"vehicle_id"`
	RenterID      int64  `json:"renter_id"`
	HostID        int64  `json:"host_id"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
	// [FromDate, ToDate) is half-open: FromDate inclusive, ToDate exclusive.
	FromDate         time.Time `json:"from_date"`
	ToDate           time.Time `json:"to_date"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	// DepositCents is the deposit collected at booking time; the refund pays
	// this back, not whatever the vehicle's deposit happens to be later.
	DepositCents        int64         `json:"deposit_cents"`
	IsSelfBooking       bool          `json:"is_self_booking"`
	IsCanceledByRenter  bool          `json:"is_canceled_by_renter"`
	IsCanceledByHost    bool          `json:"is_canceled_by_host"`
	DepositRefundableAt *time.Time    `json:"deposit_refundable_at,omitempty"`
	IsDepositRefunded   bool          `json:"is_deposit_refunded"`
	CheckedInAt         *time.Time    `json:"checked_in_at,omitempty"`
	CheckedOutAt        *time.Time    `json:"checked_out_at,omitempty"`
	Status              BookingStatus `json:"status"`
	ExtendHistory       []ExtendEntry `json:"extend_history,omitempty"`
	CreatedOn           time.Time     `json:"created_on"`
	UpdatedOn           time.Time     `json:"updated_on"`
}

// ActorRole identifies who is acting on a booking.
type ActorRole string

const (
	ActorRoleRenter ActorRole = "RENTER"
	ActorRoleHost   ActorRole = "HOST"
)
