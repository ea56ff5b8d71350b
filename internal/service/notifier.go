package service

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/repository"
)

// notifier writes an in-app notification row and sends an email for each
// booking event. Both are best-effort: delivery failures are logged and never
// propagate to the booking operation that triggered them.
type notifier struct {
	userRepo repository.UserRepository
	noteRepo repository.NotificationRepository
	smtp     config.SMTPConfig
}

func NewNotifier(userRepo repository.UserRepository, noteRepo repository.NotificationRepository, smtp config.SMTPConfig) Notifier {
	return &notifier{userRepo: userRepo, noteRepo: noteRepo, smtp: smtp}
}

func (n *notifier) send(ctx context.Context, userID int64, title, message string, attrs map[string]string) {
	note := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	}
	if err := n.noteRepo.Create(ctx, note); err != nil {
		logger.Warn("failed to store notification", "user_id", userID, "title", title, "error", err)
	}

	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("failed to resolve notification recipient", "user_id", userID, "error", err)
		return
	}
	if n.smtp.Host == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.smtp.From)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\nThe WheelShare Team", user.Name, message))

	d := gomail.NewDialer(n.smtp.Host, n.smtp.Port, n.smtp.User, n.smtp.Password)
	if err := d.DialAndSend(m); err != nil {
		logger.Warn("failed to send notification email", "user_id", userID, "title", title, "error", err)
	}
}

func bookingAttrs(kind string, b *domain.Booking) map[string]string {
	return map[string]string{
		"type":       kind,
		"booking_id": fmt.Sprintf("%d", b.ID),
		"number":     b.Number,
	}
}

func (n *notifier) BookingRequested(ctx context.Context, b *domain.Booking, vehicleName string) {
	n.send(ctx, b.HostID, "New booking request",
		fmt.Sprintf("Booking %s was requested for %s from %s to %s.",
			b.Number, vehicleName, b.FromDate.Format(time.RFC3339), b.ToDate.Format(time.RFC3339)),
		bookingAttrs("BOOKING_REQUESTED", b))
}

func (n *notifier) PaymentRequested(ctx context.Context, b *domain.Booking, checkoutURL string) {
	attrs := bookingAttrs("PAYMENT_REQUESTED", b)
	attrs["checkout_url"] = checkoutURL
	n.send(ctx, b.RenterID, "Booking approved, payment required",
		fmt.Sprintf("Booking %s was approved by the host. Complete the payment to confirm it: %s", b.Number, checkoutURL),
		attrs)
}

func (n *notifier) BookingConfirmed(ctx context.Context, b *domain.Booking) {
	msg := fmt.Sprintf("Booking %s is confirmed.", b.Number)
	n.send(ctx, b.RenterID, "Booking confirmed", msg, bookingAttrs("BOOKING_CONFIRMED", b))
	n.send(ctx, b.HostID, "Booking confirmed", msg, bookingAttrs("BOOKING_CONFIRMED", b))
}

func (n *notifier) BookingCancelled(ctx context.Context, b *domain.Booking, by domain.ActorRole) {
	// Tell the party that did not cancel.
	recipient := b.HostID
	if by == domain.ActorRoleHost {
		recipient = b.RenterID
	}
	n.send(ctx, recipient, "Booking cancelled",
		fmt.Sprintf("Booking %s was cancelled.", b.Number),
		bookingAttrs("BOOKING_CANCELLED", b))
}

func (n *notifier) BookingStarted(ctx context.Context, b *domain.Booking) {
	n.send(ctx, b.RenterID, "Rental started",
		fmt.Sprintf("Booking %s has started. Enjoy the ride.", b.Number),
		bookingAttrs("BOOKING_STARTED", b))
}

func (n *notifier) BookingCompleted(ctx context.Context, b *domain.Booking) {
	msg := fmt.Sprintf("Booking %s is complete.", b.Number)
	n.send(ctx, b.RenterID, "Rental complete", msg, bookingAttrs("BOOKING_COMPLETED", b))
	n.send(ctx, b.HostID, "Rental complete", msg, bookingAttrs("BOOKING_COMPLETED", b))
}

func (n *notifier) BookingExtended(ctx context.Context, b *domain.Booking, newTo time.Time) {
	msg := fmt.Sprintf("Booking %s was extended to %s.", b.Number, newTo.Format(time.RFC3339))
	n.send(ctx, b.RenterID, "Booking extended", msg, bookingAttrs("BOOKING_EXTENDED", b))
	n.send(ctx, b.HostID, "Booking extended", msg, bookingAttrs("BOOKING_EXTENDED", b))
}

func (n *notifier) DepositRefunded(ctx context.Context, b *domain.Booking) {
	n.send(ctx, b.RenterID, "Deposit refunded",
		fmt.Sprintf("The deposit for booking %s has been refunded.", b.Number),
		bookingAttrs("DEPOSIT_REFUNDED", b))
}
