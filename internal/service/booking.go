package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wheelshare-backend/internal/availability"
	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/payment"
	"wheelshare-backend/internal/repository"
	"wheelshare-backend/internal/utils"
)

// VehicleLocker serializes booking creation per vehicle, closing the window
// between the availability check and the insert.
type VehicleLocker interface {
	AcquireVehicleLock(ctx context.Context, vehicleID int64, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID int64) error
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	txRepo      repository.TransactionRepository
	engine      *availability.Engine
	locks       VehicleLocker
	provider    payment.Provider
	notifier    Notifier
	cfg         *config.Config
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	txRepo repository.TransactionRepository,
	engine *availability.Engine,
	locks VehicleLocker,
	provider payment.Provider,
	notifier Notifier,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		txRepo:      txRepo,
		engine:      engine,
		locks:       locks,
		provider:    provider,
		notifier:    notifier,
		cfg:         cfg,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, renterID, vehicleID int64, from, to time.Time) (*domain.Booking, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	loc, err := vehicle.Location()
	if err != nil {
		return nil, err
	}
	if !vehicle.IsActive {
		return nil, &domain.SlotUnavailableError{
			Date:   from.In(loc).Format("2006-01-02"),
			Hour:   -1,
			Reason: domain.ConflictBlocked,
			Detail: "vehicle is not active",
		}
	}

	amount, err := utils.FirstBookingAmount(from, to, vehicle.DailyPriceCents, vehicle.DepositCents)
	if err != nil {
		return nil, err
	}

	// Per-vehicle lock: two concurrent creates for the same hour would both
	// pass the availability check before either inserts.
	acquired, err := s.locks.AcquireVehicleLock(ctx, vehicleID, s.cfg.LockTTL())
	if err != nil {
		return nil, fmt.Errorf("acquire vehicle lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("vehicle %d is being booked by someone else: %w", vehicleID, domain.ErrSlotUnavailable)
	}
	defer func() {
		if err := s.locks.ReleaseVehicleLock(ctx, vehicleID); err != nil {
			logger.Warn("failed to release vehicle lock", "vehicle_id", vehicleID, "error", err)
		}
	}()

	if err := s.engine.CheckRange(ctx, vehicle, from, to, 0); err != nil {
		return nil, err
	}

	number, err := s.nextBookingNumber(ctx, from)
	if err != nil {
		return nil, err
	}

	isSelf := renterID == vehicle.HostID
	status := domain.BookingStatusRequested
	if isSelf {
		// The host booking their own vehicle pays nothing and needs no approval.
		status = domain.BookingStatusConfirmed
	}

	booking := &domain.Booking{
		Number:           number,
		VehicleID:        vehicleID,
		RenterID:         renterID,
		HostID:           vehicle.HostID,
		FromDate:         from,
		ToDate:           to,
		TotalAmountCents: amount,
		DepositCents:     vehicle.DepositCents,
		IsSelfBooking:    isSelf,
		Status:           status,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	logger.Info("booking created",
		"booking_id", booking.ID, "number", booking.Number,
		"vehicle_id", vehicleID, "status", booking.Status)

	if !isSelf {
		s.notifier.BookingRequested(ctx, booking, vehicle.Name)
	}
	return booking, nil
}

// nextBookingNumber continues this year's sequence from the most recently
// issued number, e.g. BK-2025-0041 -> BK-2025-0042.
func (s *bookingService) nextBookingNumber(ctx context.Context, from time.Time) (string, error) {
	prefix := s.cfg.Booking.NumberPrefix
	year := from.UTC().Year()

	last, err := s.bookingRepo.LastNumberForYear(ctx, prefix, year)
	if err != nil {
		return "", fmt.Errorf("last booking number: %w", err)
	}

	seq := 1
	if last != "" {
		idx := strings.LastIndex(last, "-")
		n, convErr := strconv.Atoi(last[idx+1:])
		if convErr != nil {
			return "", fmt.Errorf("malformed booking number %q", last)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}

func (s *bookingService) ApproveBooking(ctx context.Context, hostID, bookingID int64) (*domain.Booking, string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.HostID != hostID {
		return nil, "", domain.ErrUnauthorized
	}
	// A prior approval may have moved the booking to PENDING and then lost the
	// provider call before a checkout session existed. That booking has no
	// transaction yet, so approving again resumes at the checkout step instead
	// of dead-ending on the status guard.
	resuming := booking.Status == domain.BookingStatusPending && booking.TransactionID == nil
	if booking.Status != domain.BookingStatusRequested && !resuming {
		return nil, "", domain.ErrInvalidState
	}

	// Time has passed since the request; a competing booking may have been
	// confirmed meanwhile. Re-check, ignoring this booking's own row.
	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	if err != nil {
		return nil, "", err
	}
	if err := s.engine.CheckRange(ctx, vehicle, booking.FromDate, booking.ToDate, booking.ID); err != nil {
		return nil, "", err
	}

	if !resuming {
		updated, err := s.bookingRepo.UpdateIfStatus(ctx, booking.ID, domain.BookingStatusRequested, domain.BookingStatusPending)
		if err != nil {
			return nil, "", err
		}
		if !updated {
			return nil, "", domain.ErrInvalidState
		}
		booking.Status = domain.BookingStatusPending
	}

	checkoutURL, err := s.openCheckout(ctx, booking, booking.TotalAmountCents, domain.TransactionTypeBooking, nil)
	if err != nil {
		return nil, "", err
	}

	logger.Info("booking approved", "booking_id", booking.ID, "number", booking.Number)
	s.notifier.PaymentRequested(ctx, booking, checkoutURL)
	return booking, checkoutURL, nil
}

// openCheckout creates the INITIATED transaction and the provider checkout
// session the renter pays through. extendTo is set for EXTEND transactions.
func (s *bookingService) openCheckout(ctx context.Context, booking *domain.Booking, amountCents int64, txType domain.TransactionType, extendTo *time.Time) (string, error) {
	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		return "", err
	}

	description := fmt.Sprintf("Booking %s", booking.Number)
	if txType == domain.TransactionTypeExtend {
		description = fmt.Sprintf("Extension of booking %s", booking.Number)
	}
	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutSessionReq{
		Reference:   booking.Number,
		AmountCents: amountCents,
		Currency:    s.cfg.Payment.Currency,
		Description: description,
		PayerEmail:  renter.Email,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	tx := &domain.Transaction{
		BookingID:         booking.ID,
		AmountCents:       amountCents,
		Currency:          s.cfg.Payment.Currency,
		Type:              txType,
		Status:            domain.TransactionStatusInitiated,
		ProviderSessionID: session.SessionID,
		ExtendTo:          extendTo,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	if txType == domain.TransactionTypeBooking {
		if err := s.bookingRepo.SetTransactionID(ctx, booking.ID, tx.ID); err != nil {
			return "", err
		}
		booking.TransactionID = &tx.ID
	}
	return session.CheckoutURL, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actorID int64, role domain.ActorRole, bookingID int64) (*domain.Booking, int, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, 0, err
	}

	switch role {
	case domain.ActorRoleRenter:
		if booking.RenterID != actorID {
			return nil, 0, domain.ErrUnauthorized
		}
	case domain.ActorRoleHost:
		if booking.HostID != actorID {
			return nil, 0, domain.ErrUnauthorized
		}
	default:
		return nil, 0, domain.ErrUnauthorized
	}

	byHost := role == domain.ActorRoleHost
	cancellable := []domain.BookingStatus{
		domain.BookingStatusRequested,
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
	}
	cancelled, err := s.bookingRepo.Cancel(ctx, booking.ID, cancellable, byHost)
	if err != nil {
		return nil, 0, err
	}
	if !cancelled {
		return nil, 0, domain.ErrInvalidState
	}
	booking.Status = domain.BookingStatusCancelled
	if byHost {
		booking.IsCanceledByHost = true
	} else {
		booking.IsCanceledByRenter = true
	}

	// The refund itself runs through the payment reversal flow; only the
	// percentage owed is decided here, from the cancellation lead time.
	refundPercent := 50
	lead := time.Duration(s.cfg.Booking.FullRefundLeadHours) * time.Hour
	if time.Until(booking.FromDate) >= lead {
		refundPercent = 100
	}

	logger.Info("booking cancelled",
		"booking_id", booking.ID, "by", role, "refund_percent", refundPercent)
	s.notifier.BookingCancelled(ctx, booking, role)
	return booking, refundPercent, nil
}

func (s *bookingService) ExtendBooking(ctx context.Context, renterID, bookingID int64, newTo time.Time) (*domain.Booking, string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.RenterID != renterID {
		return nil, "", domain.ErrUnauthorized
	}
	if booking.Status != domain.BookingStatusConfirmed && booking.Status != domain.BookingStatusOngoing {
		return nil, "", domain.ErrInvalidState
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	if err != nil {
		return nil, "", err
	}

	amount, err := utils.ExtensionAmount(booking.ToDate, newTo, vehicle.DailyPriceCents)
	if err != nil {
		return nil, "", err
	}

	// Only the added tail [current end, new end) needs to be free.
	if err := s.engine.CheckRange(ctx, vehicle, booking.ToDate, newTo, booking.ID); err != nil {
		return nil, "", err
	}

	if booking.IsSelfBooking {
		entry := domain.ExtendEntry{
			PrevToDate: booking.ToDate,
			NewToDate:  newTo,
			ExtendedAt: time.Now().UTC(),
		}
		applied, err := s.bookingRepo.ApplyExtension(ctx, booking.ID, entry)
		if err != nil {
			return nil, "", err
		}
		if !applied {
			return nil, "", domain.ErrInvalidState
		}
		booking.ToDate = newTo
		booking.ExtendHistory = append(booking.ExtendHistory, entry)
		return booking, "", nil
	}

	checkoutURL, err := s.openCheckout(ctx, booking, amount, domain.TransactionTypeExtend, &newTo)
	if err != nil {
		return nil, "", err
	}

	logger.Info("booking extension initiated",
		"booking_id", booking.ID, "new_to", newTo, "amount_cents", amount)
	return booking, checkoutURL, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != actorID && booking.HostID != actorID {
		return nil, domain.ErrUnauthorized
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, userID int64, role domain.ActorRole, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if role == domain.ActorRoleHost {
		return s.bookingRepo.ListByHost(ctx, userID, status, page, pageSize)
	}
	return s.bookingRepo.ListByRenter(ctx, userID, status, page, pageSize)
}

func (s *bookingService) GetAvailability(ctx context.Context, vehicleID int64, date string) ([]availability.Slot, error) {
	return s.engine.DayCalendar(ctx, vehicleID, date)
}
