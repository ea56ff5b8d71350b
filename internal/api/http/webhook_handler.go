package http

import (
	"encoding/json"
	"io"
	"net/http"

	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/payment"
	"wheelshare-backend/internal/service"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives payment provider events. The raw body is verified
// against the shared webhook secret before any parsing.
type WebhookHandler struct {
	settlement service.SettlementService
	provider   payment.Provider
}

func NewWebhookHandler(settlement service.SettlementService, provider payment.Provider) *WebhookHandler {
	return &WebhookHandler{settlement: settlement, provider: provider}
}

type webhookEvent struct {
	Type            string `json:"type"`
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

func (h *WebhookHandler) HandlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "unable to read request body")
		return
	}

	if err := h.provider.VerifySignature(r.Header.Get(signatureHeader), body); err != nil {
		logger.Warn("rejected webhook with bad signature", "error", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeBadRequest(w, "invalid event payload")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		if event.SessionID == "" {
			writeBadRequest(w, "session_id is required")
			return
		}
		if err := h.settlement.OnPaymentSucceeded(r.Context(), event.SessionID, event.PaymentIntentID); err != nil {
			writeError(w, err)
			return
		}
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		logger.Info("ignoring webhook event", "type", event.Type)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
