package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"

	"wheelshare-backend/internal/logger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Booking      *BookingHandler
	Webhook      *WebhookHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
	DB           *sql.DB
	Redis        *goredis.Client
}

// NewRouter wires all routes.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogging)

	r.HandleFunc("/healthz", healthCheck(h.DB, h.Redis)).Methods("GET")

	// The payment provider calls this; it authenticates by signature, not header.
	r.HandleFunc("/webhooks/payment", h.Webhook.HandlePaymentEvent).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/bookings", h.Booking.Create).Methods("POST")
	api.HandleFunc("/bookings", h.Booking.List).Methods("GET")
	api.HandleFunc("/bookings/{id}", h.Booking.Get).Methods("GET")
	api.HandleFunc("/bookings/{id}/approve", h.Booking.Approve).Methods("POST")
	api.HandleFunc("/bookings/{id}/cancel", h.Booking.Cancel).Methods("POST")
	api.HandleFunc("/bookings/{id}/extend", h.Booking.Extend).Methods("POST")

	api.HandleFunc("/vehicles/{id}/availability", h.Booking.Availability).Methods("GET")

	api.HandleFunc("/notifications", h.Notification.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", h.Notification.MarkAsRead).Methods("POST")

	api.HandleFunc("/admin/charge-config", h.Admin.GetChargeConfig).Methods("GET")
	api.HandleFunc("/admin/charge-config", h.Admin.UpdateChargeConfig).Methods("PUT")

	return r
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func healthCheck(db *sql.DB, rdb *goredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unreachable"})
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
