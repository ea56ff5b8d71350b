package domain

import "time"

type TransactionType string

const (
	TransactionTypeBooking TransactionType = "BOOKING"
	TransactionTypeExtend  TransactionType = "EXTEND"
)

type TransactionStatus string

const (
	// TransactionStatusInitiated is the state a transaction stays in when the
	// renter abandons checkout; only a provider success event moves it forward.
	TransactionStatusInitiated TransactionStatus = "INITIATED"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
)

type Transaction struct {
	ID          int64             `json:"id"`
	BookingID   int64             `json:"booking_id"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	// Charge breakdown, filled in when the payment succeeds. The three parts
	// always sum exactly to AmountCents.
	PlatformFeeCents     int64  `json:"platform_fee_cents"`
	HostCommissionCents  int64  `json:"host_commission_cents"`
	AdminCommissionCents int64  `json:"admin_commission_cents"`
	ProviderSessionID    string `json:"provider_session_id"`
	ProviderIntentID     string `json:"provider_intent_id,omitempty"`
	// ExtendTo carries the proposed new end date for EXTEND transactions; it is
	// applied to the booking only once the payment succeeds.
	ExtendTo       *time.Time `json:"extend_to,omitempty"`
	HostTransferID *string    `json:"host_transfer_id,omitempty"`
	RefundID       *string    `json:"refund_id,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      time.Time  `json:"updated_on"`
}

// Charges is the platform/host/admin split of a settled amount.
type Charges struct {
	PlatformFeeCents     int64
	HostCommissionCents  int64
	AdminCommissionCents int64
}

// ChargeConfig holds the three commission percentages. Values greater than 1
// are whole percentages (e.g. 10 means 10%); the three must sum to 100%.
type ChargeConfig struct {
	PlatformPercent float64   `json:"platform_percent"`
	HostPercent     float64   `json:"host_percent"`
	AdminPercent    float64   `json:"admin_percent"`
	UpdatedOn       time.Time `json:"updated_on"`
}
