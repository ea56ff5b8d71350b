package payment

import "context"

// CheckoutSessionReq asks the provider to open a hosted checkout for one
// transaction. Reference is the human-readable booking number.
type CheckoutSessionReq struct {
	Reference   string
	AmountCents int64
	Currency    string
	Description string
	PayerEmail  string
}

// CheckoutSession is the provider-side session the renter completes.
type CheckoutSession struct {
	SessionID   string
	CheckoutURL string
}

// Provider is the payment collaborator: checkout session creation, deposit
// refunds, host commission transfers, and webhook signature verification.
// Implementations must treat network and timeout failures as transient: the
// caller retries on the next scheduler sweep.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionReq) (*CheckoutSession, error)
	// RefundDeposit refunds amountCents of the original payment intent and
	// returns the provider refund id.
	RefundDeposit(ctx context.Context, intentID string, amountCents int64, currency string) (string, error)
	// TransferToHost moves amountCents to the host's payout account and
	// returns the provider transfer id.
	TransferToHost(ctx context.Context, payoutAccountID string, amountCents int64, currency string) (string, error)
	// VerifySignature checks the webhook signature header against the raw body.
	VerifySignature(sigHeader string, rawBody []byte) error
}
