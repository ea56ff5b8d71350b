package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type httpProvider struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
}

// NewHTTP builds the real provider client. timeout bounds every call; an
// expired deadline surfaces as an error and the operation is retried on the
// next sweep rather than treated as a terminal state change.
func NewHTTP(baseURL, apiKey, webhookSecret string, timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpProvider{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
	}
}

func (p *httpProvider) post(ctx context.Context, path string, body map[string]any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// One key per attempt set; the provider dedupes replays of the same call.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment provider %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *httpProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionReq) (*CheckoutSession, error) {
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	body := map[string]any{
		"reference":   req.Reference,
		"amount":      req.AmountCents,
		"currency":    req.Currency,
		"description": req.Description,
		"payer_email": req.PayerEmail,
	}
	if err := p.post(ctx, "/v1/checkout/sessions", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("payment provider: empty session id")
	}
	return &CheckoutSession{SessionID: out.ID, CheckoutURL: out.URL}, nil
}

func (p *httpProvider) RefundDeposit(ctx context.Context, intentID string, amountCents int64, currency string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{
		"payment_intent": intentID,
		"amount":         amountCents,
		"currency":       currency,
	}
	if err := p.post(ctx, "/v1/refunds", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("payment provider: empty refund id")
	}
	return out.ID, nil
}

func (p *httpProvider) TransferToHost(ctx context.Context, payoutAccountID string, amountCents int64, currency string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{
		"destination": payoutAccountID,
		"amount":      amountCents,
		"currency":    currency,
	}
	if err := p.post(ctx, "/v1/transfers", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("payment provider: empty transfer id")
	}
	return out.ID, nil
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body against the
// signature header the provider sends with each webhook.
func (p *httpProvider) VerifySignature(sigHeader string, rawBody []byte) error {
	if sigHeader == "" {
		return errors.New("missing webhook signature")
	}
	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sigHeader)) {
		return errors.New("invalid webhook signature")
	}
	return nil
}
