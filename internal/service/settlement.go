package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/payment"
	"wheelshare-backend/internal/repository"
	"wheelshare-backend/internal/utils"
)

type settlementService struct {
	bookingRepo repository.BookingRepository
	txRepo      repository.TransactionRepository
	userRepo    repository.UserRepository
	chargeRepo  repository.ChargeConfigRepository
	provider    payment.Provider
	notifier    Notifier
	cfg         *config.Config
}

func NewSettlementService(
	bookingRepo repository.BookingRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	chargeRepo repository.ChargeConfigRepository,
	provider payment.Provider,
	notifier Notifier,
	cfg *config.Config,
) SettlementService {
	return &settlementService{
		bookingRepo: bookingRepo,
		txRepo:      txRepo,
		userRepo:    userRepo,
		chargeRepo:  chargeRepo,
		provider:    provider,
		notifier:    notifier,
		cfg:         cfg,
	}
}

func (s *settlementService) OnPaymentSucceeded(ctx context.Context, providerSessionID, providerIntentID string) error {
	tx, err := s.txRepo.GetByProviderSessionID(ctx, providerSessionID)
	if err != nil {
		return err
	}

	charges, err := utils.SplitCharges(tx.AmountCents, s.chargeConfig(ctx))
	if err != nil {
		return err
	}

	settled, err := s.txRepo.MarkSuccess(ctx, tx.ID, providerIntentID, charges)
	if err != nil {
		return err
	}
	if !settled {
		// Duplicate webhook delivery; the first one already settled it.
		logger.Info("payment event already processed",
			"transaction_id", tx.ID, "session_id", providerSessionID)
		return nil
	}

	logger.Info("transaction settled",
		"transaction_id", tx.ID, "booking_id", tx.BookingID,
		"type", tx.Type, "amount_cents", tx.AmountCents)

	switch tx.Type {
	case domain.TransactionTypeBooking:
		return s.confirmBooking(ctx, tx)
	case domain.TransactionTypeExtend:
		return s.applyExtension(ctx, tx)
	default:
		return fmt.Errorf("transaction %d has unknown type %q", tx.ID, tx.Type)
	}
}

// chargeConfig reads the admin-stored split, falling back to the configured
// defaults when none has been stored yet.
func (s *settlementService) chargeConfig(ctx context.Context) *domain.ChargeConfig {
	stored, err := s.chargeRepo.Get(ctx)
	if err == nil {
		return stored
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Warn("failed to load charge config, using defaults", "error", err)
	}
	return &domain.ChargeConfig{
		PlatformPercent: s.cfg.Charges.PlatformPercent,
		HostPercent:     s.cfg.Charges.HostPercent,
		AdminPercent:    s.cfg.Charges.AdminPercent,
	}
}

func (s *settlementService) confirmBooking(ctx context.Context, tx *domain.Transaction) error {
	confirmed, err := s.bookingRepo.UpdateIfStatus(ctx, tx.BookingID, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if !confirmed {
		// Cancelled while the payment was in flight, or already confirmed.
		logger.Warn("paid booking not in PENDING, skipping confirmation", "booking_id", tx.BookingID)
		return nil
	}

	booking, err := s.bookingRepo.GetByID(ctx, tx.BookingID)
	if err != nil {
		return err
	}
	logger.Info("booking confirmed", "booking_id", booking.ID, "number", booking.Number)
	s.notifier.BookingConfirmed(ctx, booking)
	return nil
}

func (s *settlementService) applyExtension(ctx context.Context, tx *domain.Transaction) error {
	if tx.ExtendTo == nil {
		return fmt.Errorf("extension transaction %d has no target end date", tx.ID)
	}
	booking, err := s.bookingRepo.GetByID(ctx, tx.BookingID)
	if err != nil {
		return err
	}

	entry := domain.ExtendEntry{
		PrevToDate:    booking.ToDate,
		NewToDate:     *tx.ExtendTo,
		TransactionID: tx.ID,
		AmountCents:   tx.AmountCents,
		ExtendedAt:    time.Now().UTC(),
	}
	applied, err := s.bookingRepo.ApplyExtension(ctx, booking.ID, entry)
	if err != nil {
		return err
	}
	if !applied {
		logger.Warn("paid extension could not be applied",
			"booking_id", booking.ID, "transaction_id", tx.ID,
			"status", booking.Status, "to_date", booking.ToDate)
		return nil
	}

	booking.ToDate = *tx.ExtendTo
	logger.Info("booking extended", "booking_id", booking.ID, "new_to", booking.ToDate)
	s.notifier.BookingExtended(ctx, booking, booking.ToDate)
	return nil
}

// RunTick is the scheduler entry point. Each phase collects its own eligible
// set and failures on one booking never stop the rest of the sweep.
func (s *settlementService) RunTick(ctx context.Context, now time.Time) error {
	s.runCheckIns(ctx, now)
	s.runCheckOuts(ctx, now)
	s.runDepositRefunds(ctx, now)
	s.runHostPayouts(ctx)
	return nil
}

func (s *settlementService) runCheckIns(ctx context.Context, now time.Time) {
	eligible, err := s.bookingRepo.ListEligibleForCheckIn(ctx, now)
	if err != nil {
		logger.Error("failed to list bookings due for check-in", "error", err)
		return
	}
	for i := range eligible {
		b := &eligible[i]
		checkedIn, err := s.bookingRepo.MarkCheckedIn(ctx, b.ID, now)
		if err != nil {
			logger.Error("check-in failed", "booking_id", b.ID, "error", err)
			continue
		}
		if !checkedIn {
			continue
		}
		b.Status = domain.BookingStatusOngoing
		logger.Info("booking checked in", "booking_id", b.ID, "number", b.Number)
		s.notifier.BookingStarted(ctx, b)
	}
}

func (s *settlementService) runCheckOuts(ctx context.Context, now time.Time) {
	eligible, err := s.bookingRepo.ListEligibleForCheckOut(ctx, now)
	if err != nil {
		logger.Error("failed to list bookings due for check-out", "error", err)
		return
	}
	refundDelay := time.Duration(s.cfg.Booking.DepositRefundDelayDays) * 24 * time.Hour
	for i := range eligible {
		b := &eligible[i]
		checkedOut, err := s.bookingRepo.MarkCheckedOut(ctx, b.ID, now, now.Add(refundDelay))
		if err != nil {
			logger.Error("check-out failed", "booking_id", b.ID, "error", err)
			continue
		}
		if !checkedOut {
			continue
		}
		b.Status = domain.BookingStatusCompleted
		logger.Info("booking checked out", "booking_id", b.ID, "number", b.Number)
		s.notifier.BookingCompleted(ctx, b)
	}
}

func (s *settlementService) runDepositRefunds(ctx context.Context, now time.Time) {
	eligible, err := s.bookingRepo.ListDepositRefundable(ctx, now)
	if err != nil {
		logger.Error("failed to list refundable deposits", "error", err)
		return
	}
	for i := range eligible {
		b := &eligible[i]
		if err := s.refundDeposit(ctx, b); err != nil {
			// Transient provider failures stay eligible and retry next sweep.
			logger.Error("deposit refund failed", "booking_id", b.ID, "error", err)
		}
	}
}

func (s *settlementService) refundDeposit(ctx context.Context, b *domain.Booking) error {
	if b.TransactionID == nil {
		return fmt.Errorf("booking %d has no settlement transaction", b.ID)
	}
	tx, err := s.txRepo.GetByID(ctx, *b.TransactionID)
	if err != nil {
		return err
	}
	if tx.ProviderIntentID == "" {
		return fmt.Errorf("transaction %d has no payment intent to refund against", tx.ID)
	}
	// Refund what was collected with this booking; the vehicle's deposit may
	// have been changed by the host since.
	if b.DepositCents <= 0 {
		_, err := s.bookingRepo.MarkDepositRefunded(ctx, b.ID)
		return err
	}

	refundID, err := s.provider.RefundDeposit(ctx, tx.ProviderIntentID, b.DepositCents, tx.Currency)
	if err != nil {
		return err
	}
	if err := s.txRepo.SetRefundID(ctx, tx.ID, refundID); err != nil {
		return err
	}
	refunded, err := s.bookingRepo.MarkDepositRefunded(ctx, b.ID)
	if err != nil {
		return err
	}
	if refunded {
		logger.Info("deposit refunded",
			"booking_id", b.ID, "amount_cents", b.DepositCents, "refund_id", refundID)
		s.notifier.DepositRefunded(ctx, b)
	}
	return nil
}

// runHostPayouts transfers the host commission of settled transactions whose
// booking has completed. A failed transfer leaves host_transfer_id unset, so
// the transaction stays in the eligible set and is retried next sweep.
func (s *settlementService) runHostPayouts(ctx context.Context) {
	awaiting, err := s.txRepo.ListAwaitingTransfer(ctx)
	if err != nil {
		logger.Error("failed to list transactions awaiting host transfer", "error", err)
		return
	}
	for i := range awaiting {
		tx := &awaiting[i]
		if err := s.payHost(ctx, tx); err != nil {
			logger.Error("host payout failed",
				"transaction_id", tx.ID, "booking_id", tx.BookingID, "error", err)
		}
	}
}

func (s *settlementService) payHost(ctx context.Context, tx *domain.Transaction) error {
	booking, err := s.bookingRepo.GetByID(ctx, tx.BookingID)
	if err != nil {
		return err
	}
	host, err := s.userRepo.GetByID(ctx, booking.HostID)
	if err != nil {
		return err
	}
	if host.PayoutAccountID == "" {
		logger.Warn("host has no payout destination, skipping transfer",
			"host_id", host.ID, "transaction_id", tx.ID)
		return nil
	}

	transferID, err := s.provider.TransferToHost(ctx, host.PayoutAccountID, tx.HostCommissionCents, tx.Currency)
	if err != nil {
		return err
	}
	if err := s.txRepo.SetHostTransferID(ctx, tx.ID, transferID); err != nil {
		return err
	}
	logger.Info("host commission transferred",
		"transaction_id", tx.ID, "host_id", host.ID,
		"amount_cents", tx.HostCommissionCents, "transfer_id", transferID)
	return nil
}
