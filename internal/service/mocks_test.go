package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/payment"
)

// MockVehicleRepo
type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleRepo) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListByHost(ctx context.Context, hostID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, hostID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) LastNumberForYear(ctx context.Context, prefix string, year int) (string, error) {
	args := m.Called(ctx, prefix, year)
	return args.String(0), args.Error(1)
}
func (m *MockBookingRepo) FindOverlapping(ctx context.Context, vehicleID int64, from, to time.Time, excludeID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, vehicleID, from, to, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) UpdateIfStatus(ctx context.Context, id int64, expected, next domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) SetTransactionID(ctx context.Context, id, transactionID int64) error {
	args := m.Called(ctx, id, transactionID)
	return args.Error(0)
}
func (m *MockBookingRepo) Cancel(ctx context.Context, id int64, from []domain.BookingStatus, byHost bool) (bool, error) {
	args := m.Called(ctx, id, from, byHost)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) MarkCheckedOut(ctx context.Context, id int64, at, depositRefundableAt time.Time) (bool, error) {
	args := m.Called(ctx, id, at, depositRefundableAt)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) MarkDepositRefunded(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) ApplyExtension(ctx context.Context, id int64, entry domain.ExtendEntry) (bool, error) {
	args := m.Called(ctx, id, entry)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) ListEligibleForCheckIn(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListEligibleForCheckOut(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListDepositRefundable(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) MarkSuccess(ctx context.Context, id int64, intentID string, charges domain.Charges) (bool, error) {
	args := m.Called(ctx, id, intentID, charges)
	return args.Bool(0), args.Error(1)
}
func (m *MockTransactionRepo) SetHostTransferID(ctx context.Context, id int64, transferID string) error {
	args := m.Called(ctx, id, transferID)
	return args.Error(0)
}
func (m *MockTransactionRepo) SetRefundID(ctx context.Context, id int64, refundID string) error {
	args := m.Called(ctx, id, refundID)
	return args.Error(0)
}
func (m *MockTransactionRepo) ListAwaitingTransfer(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockChargeConfigRepo
type MockChargeConfigRepo struct {
	mock.Mock
}

func (m *MockChargeConfigRepo) Get(ctx context.Context) (*domain.ChargeConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeConfig), args.Error(1)
}
func (m *MockChargeConfigRepo) Update(ctx context.Context, cfg *domain.ChargeConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionReq) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}
func (m *MockProvider) RefundDeposit(ctx context.Context, intentID string, amountCents int64, currency string) (string, error) {
	args := m.Called(ctx, intentID, amountCents, currency)
	return args.String(0), args.Error(1)
}
func (m *MockProvider) TransferToHost(ctx context.Context, payoutAccountID string, amountCents int64, currency string) (string, error) {
	args := m.Called(ctx, payoutAccountID, amountCents, currency)
	return args.String(0), args.Error(1)
}
func (m *MockProvider) VerifySignature(sigHeader string, rawBody []byte) error {
	args := m.Called(sigHeader, rawBody)
	return args.Error(0)
}

// MockLocker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireVehicleLock(ctx context.Context, vehicleID int64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, vehicleID, ttl)
	return args.Bool(0), args.Error(1)
}
func (m *MockLocker) ReleaseVehicleLock(ctx context.Context, vehicleID int64) error {
	args := m.Called(ctx, vehicleID)
	return args.Error(0)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BookingRequested(ctx context.Context, b *domain.Booking, vehicleName string) {
	m.Called(ctx, b, vehicleName)
}
func (m *MockNotifier) PaymentRequested(ctx context.Context, b *domain.Booking, checkoutURL string) {
	m.Called(ctx, b, checkoutURL)
}
func (m *MockNotifier) BookingConfirmed(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}
func (m *MockNotifier) BookingCancelled(ctx context.Context, b *domain.Booking, by domain.ActorRole) {
	m.Called(ctx, b, by)
}
func (m *MockNotifier) BookingStarted(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}
func (m *MockNotifier) BookingCompleted(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}
func (m *MockNotifier) BookingExtended(ctx context.Context, b *domain.Booking, newTo time.Time) {
	m.Called(ctx, b, newTo)
}
func (m *MockNotifier) DepositRefunded(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}
