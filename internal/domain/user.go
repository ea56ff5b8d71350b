package domain

import "time"

// User is a read-mostly collaborator entity: the booking core only needs
// identity, contact details, and the host's payout destination.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	// PayoutAccountID is the provider-side destination for host commission
	// transfers. Empty means no payout destination is configured.
	PayoutAccountID string    `json:"payout_account_id,omitempty"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
}
