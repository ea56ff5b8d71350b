package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints. The acting user is
// identified by the X-User-ID header, set by the authentication layer in
// front of this service.
type BookingHandler struct {
	bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func actorID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type createBookingRequest struct {
	VehicleID int64     `json:"vehicle_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	renterID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.VehicleID <= 0 || req.From.IsZero() || req.To.IsZero() {
		writeBadRequest(w, "vehicle_id, from and to are required")
		return
	}
	if !req.To.After(req.From) {
		writeBadRequest(w, "to must be after from")
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), renterID, req.VehicleID, req.From, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

type approveBookingResponse struct {
	Booking     *domain.Booking `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	hostID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}
	bookingID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}

	booking, checkoutURL, err := h.bookings.ApproveBooking(r.Context(), hostID, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approveBookingResponse{Booking: booking, CheckoutURL: checkoutURL})
}

type cancelBookingRequest struct {
	Role domain.ActorRole `json:"role"`
}

type cancelBookingResponse struct {
	Booking       *domain.Booking `json:"booking"`
	RefundPercent int             `json:"refund_percent"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}
	bookingID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}

	req := cancelBookingRequest{Role: domain.ActorRoleRenter}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}
	if req.Role != domain.ActorRoleRenter && req.Role != domain.ActorRoleHost {
		writeBadRequest(w, "role must be RENTER or HOST")
		return
	}

	booking, refundPercent, err := h.bookings.CancelBooking(r.Context(), userID, req.Role, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelBookingResponse{Booking: booking, RefundPercent: refundPercent})
}

type extendBookingRequest struct {
	NewTo time.Time `json:"new_to"`
}

func (h *BookingHandler) Extend(w http.ResponseWriter, r *http.Request) {
	renterID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}
	bookingID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}

	var req extendBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewTo.IsZero() {
		writeBadRequest(w, "new_to is required")
		return
	}

	booking, checkoutURL, err := h.bookings.ExtendBooking(r.Context(), renterID, bookingID, req.NewTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approveBookingResponse{Booking: booking, CheckoutURL: checkoutURL})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}
	bookingID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type listBookingsResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int32            `json:"total"`
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		writeBadRequest(w, "missing or invalid X-User-ID header")
		return
	}

	role := domain.ActorRole(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.ActorRoleRenter
	}
	status := r.URL.Query().Get("status")
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32)
	pageSize, _ := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32)

	bookings, total, err := h.bookings.ListBookings(r.Context(), userID, role, status, int32(page), int32(pageSize))
	if err != nil {
		writeError(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Bookings: bookings, Total: total})
}

// Availability returns the 24-slot calendar for a vehicle-local date.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid vehicle id")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeBadRequest(w, "date must be yyyy-mm-dd")
		return
	}

	slots, err := h.bookings.GetAvailability(r.Context(), vehicleID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}
