package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/logger"
)

type errorResponse struct {
	Error    string        `json:"error"`
	Conflict *conflictInfo `json:"conflict,omitempty"`
}

// conflictInfo surfaces the offending slot of an availability rejection.
type conflictInfo struct {
	Date   string `json:"date"`
	Hour   *int   `json:"hour,omitempty"` // omitted for whole-day conflicts
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var slotErr *domain.SlotUnavailableError
	if errors.As(err, &slotErr) {
		info := &conflictInfo{
			Date:   slotErr.Date,
			Reason: string(slotErr.Reason),
			Detail: slotErr.Detail,
		}
		if slotErr.Hour >= 0 {
			hour := slotErr.Hour
			info.Hour = &hour
		}
		writeJSON(w, http.StatusConflict, errorResponse{Error: slotErr.Error(), Conflict: info})
		return
	}

	switch {
	case errors.Is(err, domain.ErrVehicleNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidExtension),
		errors.Is(err, domain.ErrInvalidChargeConfig):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
