package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wheelshare-backend/internal/availability"
	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/payment"
	"wheelshare-backend/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Payment: config.PaymentConfig{Currency: "usd", TimeoutSeconds: 10},
		Redis:   config.RedisConfig{LockTTLSeconds: 10},
		Booking: config.BookingConfig{
			NumberPrefix:           "BK",
			DepositRefundDelayDays: 3,
			FullRefundLeadHours:    12,
		},
		Charges: config.ChargesConfig{PlatformPercent: 10, HostPercent: 70, AdminPercent: 20},
	}
}

type bookingFixture struct {
	bookingRepo *MockBookingRepo
	vehicleRepo *MockVehicleRepo
	userRepo    *MockUserRepo
	txRepo      *MockTransactionRepo
	locks       *MockLocker
	provider    *MockProvider
	notifier    *MockNotifier
	svc         service.BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookingRepo: new(MockBookingRepo),
		vehicleRepo: new(MockVehicleRepo),
		userRepo:    new(MockUserRepo),
		txRepo:      new(MockTransactionRepo),
		locks:       new(MockLocker),
		provider:    new(MockProvider),
		notifier:    new(MockNotifier),
	}
	engine := availability.NewEngine(f.vehicleRepo, f.bookingRepo)
	f.svc = service.NewBookingService(
		f.bookingRepo, f.vehicleRepo, f.userRepo, f.txRepo,
		engine, f.locks, f.provider, f.notifier, testConfig(),
	)
	return f
}

func testVehicle() *domain.Vehicle {
	return &domain.Vehicle{
		ID:              2,
		HostID:          10,
		Name:            "Blue Camper",
		IsActive:        true,
		DailyPriceCents: 2400,
		DepositCents:    10000,
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	t.Run("renter request lands in REQUESTED", func(t *testing.T) {
		f := newBookingFixture()
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.locks.On("AcquireVehicleLock", ctx, int64(2), 10*time.Second).Return(true, nil)
		f.locks.On("ReleaseVehicleLock", ctx, int64(2)).Return(nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(0)).
			Return([]domain.Booking{}, nil)
		f.bookingRepo.On("LastNumberForYear", ctx, "BK", 2025).Return("BK-2025-0041", nil)
		f.bookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Booking).ID = 7
			}).Return(nil)
		f.notifier.On("BookingRequested", ctx, mock.AnythingOfType("*domain.Booking"), "Blue Camper").Return()

		booking, err := f.svc.CreateBooking(ctx, 1, 2, from, to)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusRequested, booking.Status)
		assert.Equal(t, "BK-2025-0042", booking.Number)
		// Under 24h bills as one full day, plus the deposit.
		assert.Equal(t, int64(12400), booking.TotalAmountCents)
		assert.False(t, booking.IsSelfBooking)
		f.notifier.AssertCalled(t, "BookingRequested", ctx, mock.Anything, "Blue Camper")
	})

	t.Run("self-booking lands directly in CONFIRMED with no transaction", func(t *testing.T) {
		f := newBookingFixture()
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.locks.On("AcquireVehicleLock", ctx, int64(2), 10*time.Second).Return(true, nil)
		f.locks.On("ReleaseVehicleLock", ctx, int64(2)).Return(nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(0)).
			Return([]domain.Booking{}, nil)
		f.bookingRepo.On("LastNumberForYear", ctx, "BK", 2025).Return("", nil)
		f.bookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)

		booking, err := f.svc.CreateBooking(ctx, 10, 2, from, to)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, "BK-2025-0001", booking.Number)
		assert.True(t, booking.IsSelfBooking)
		assert.Nil(t, booking.TransactionID)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "BookingRequested", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent creation on the same vehicle is rejected", func(t *testing.T) {
		f := newBookingFixture()
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.locks.On("AcquireVehicleLock", ctx, int64(2), 10*time.Second).Return(false, nil)

		booking, err := f.svc.CreateBooking(ctx, 1, 2, from, to)
		assert.Nil(t, booking)
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("request outside operating hours is rejected", func(t *testing.T) {
		f := newBookingFixture()
		vehicle := testVehicle()
		vehicle.DefaultStartTime = "09:00"
		vehicle.DefaultEndTime = "21:00"
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(vehicle, nil)
		f.locks.On("AcquireVehicleLock", ctx, int64(2), 10*time.Second).Return(true, nil)
		f.locks.On("ReleaseVehicleLock", ctx, int64(2)).Return(nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(0)).
			Return([]domain.Booking{}, nil)

		early := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
		booking, err := f.svc.CreateBooking(ctx, 1, 2, early, early.Add(2*time.Hour))
		assert.Nil(t, booking)

		var slotErr *domain.SlotUnavailableError
		assert.ErrorAs(t, err, &slotErr)
		assert.Equal(t, 8, slotErr.Hour)
		assert.Equal(t, domain.ConflictOutsideHours, slotErr.Reason)
		f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("inactive vehicle is rejected", func(t *testing.T) {
		f := newBookingFixture()
		vehicle := testVehicle()
		vehicle.IsActive = false
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(vehicle, nil)

		_, err := f.svc.CreateBooking(ctx, 1, 2, from, to)
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		f.locks.AssertNotCalled(t, "AcquireVehicleLock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBookingService_ApproveBooking(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)

	requested := func() *domain.Booking {
		return &domain.Booking{
			ID:               7,
			Number:           "BK-2025-0042",
			VehicleID:        2,
			RenterID:         1,
			HostID:           10,
			FromDate:         from,
			ToDate:           to,
			TotalAmountCents: 14800,
			Status:           domain.BookingStatusRequested,
		}
	}

	t.Run("approval opens a checkout session", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(requested(), nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{}, nil)
		f.bookingRepo.On("UpdateIfStatus", ctx, int64(7), domain.BookingStatusRequested, domain.BookingStatusPending).
			Return(true, nil)
		f.userRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.User{ID: 1, Email: "renter@test.com", Name: "Renter"}, nil)
		f.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req payment.CheckoutSessionReq) bool {
			return req.Reference == "BK-2025-0042" && req.AmountCents == 14800 && req.PayerEmail == "renter@test.com"
		})).Return(&payment.CheckoutSession{SessionID: "cs_123", CheckoutURL: "https://pay.test/cs_123"}, nil)
		f.txRepo.On("Create", ctx, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) {
				tx := args.Get(1).(*domain.Transaction)
				assert.Equal(t, domain.TransactionTypeBooking, tx.Type)
				assert.Equal(t, domain.TransactionStatusInitiated, tx.Status)
				assert.Equal(t, "cs_123", tx.ProviderSessionID)
				tx.ID = 55
			}).Return(nil)
		f.bookingRepo.On("SetTransactionID", ctx, int64(7), int64(55)).Return(nil)
		f.notifier.On("PaymentRequested", ctx, mock.AnythingOfType("*domain.Booking"), "https://pay.test/cs_123").Return()

		booking, checkoutURL, err := f.svc.ApproveBooking(ctx, 10, 7)
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusPending, booking.Status)
		assert.Equal(t, "https://pay.test/cs_123", checkoutURL)
		assert.Equal(t, int64(55), *booking.TransactionID)
	})

	t.Run("only the assigned host may approve", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(requested(), nil)

		_, _, err := f.svc.ApproveBooking(ctx, 99, 7)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("approving a non-REQUESTED booking fails", func(t *testing.T) {
		f := newBookingFixture()
		txID := int64(55)
		b := requested()
		b.Status = domain.BookingStatusPending
		b.TransactionID = &txID
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(b, nil)

		_, _, err := f.svc.ApproveBooking(ctx, 10, 7)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("checkout failure does not strand the booking", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(requested(), nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{}, nil)
		f.bookingRepo.On("UpdateIfStatus", ctx, int64(7), domain.BookingStatusRequested, domain.BookingStatusPending).
			Return(true, nil)
		f.userRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.User{ID: 1, Email: "renter@test.com"}, nil)
		f.provider.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(nil, errors.New("gateway timeout"))

		_, _, err := f.svc.ApproveBooking(ctx, 10, 7)
		assert.Error(t, err)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("approval resumes a PENDING booking without a checkout", func(t *testing.T) {
		// A prior approval moved the booking to PENDING and then lost the
		// provider call; approving again reopens the checkout step.
		f := newBookingFixture()
		b := requested()
		b.Status = domain.BookingStatusPending
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(b, nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{}, nil)
		f.userRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.User{ID: 1, Email: "renter@test.com"}, nil)
		f.provider.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(&payment.CheckoutSession{SessionID: "cs_retry", CheckoutURL: "https://pay.test/cs_retry"}, nil)
		f.txRepo.On("Create", ctx, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Transaction).ID = 57
			}).Return(nil)
		f.bookingRepo.On("SetTransactionID", ctx, int64(7), int64(57)).Return(nil)
		f.notifier.On("PaymentRequested", ctx, mock.Anything, "https://pay.test/cs_retry").Return()

		booking, checkoutURL, err := f.svc.ApproveBooking(ctx, 10, 7)
		assert.NoError(t, err)
		assert.Equal(t, "https://pay.test/cs_retry", checkoutURL)
		assert.Equal(t, int64(57), *booking.TransactionID)
		// The status already moved; no second CAS is attempted.
		f.bookingRepo.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a booking confirmed in the meantime blocks approval", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(requested(), nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		competing := domain.Booking{
			ID: 8, VehicleID: 2,
			FromDate: from, ToDate: from.Add(3 * time.Hour),
			Status: domain.BookingStatusConfirmed,
		}
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{competing}, nil)

		_, _, err := f.svc.ApproveBooking(ctx, 10, 7)

		var slotErr *domain.SlotUnavailableError
		assert.ErrorAs(t, err, &slotErr)
		assert.Equal(t, domain.ConflictAlreadyBooked, slotErr.Reason)
		f.bookingRepo.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	confirmed := func(fromIn time.Duration) *domain.Booking {
		return &domain.Booking{
			ID:       7,
			Number:   "BK-2025-0042",
			RenterID: 1,
			HostID:   10,
			FromDate: time.Now().Add(fromIn),
			Status:   domain.BookingStatusConfirmed,
		}
	}

	t.Run("early cancellation earns a full refund", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(48*time.Hour), nil)
		f.bookingRepo.On("Cancel", ctx, int64(7), mock.Anything, false).Return(true, nil)
		f.notifier.On("BookingCancelled", ctx, mock.Anything, domain.ActorRoleRenter).Return()

		booking, refundPercent, err := f.svc.CancelBooking(ctx, 1, domain.ActorRoleRenter, 7)
		assert.NoError(t, err)
		assert.Equal(t, 100, refundPercent)
		assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
		assert.True(t, booking.IsCanceledByRenter)
		assert.False(t, booking.IsCanceledByHost)
	})

	t.Run("late cancellation earns half", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(2*time.Hour), nil)
		f.bookingRepo.On("Cancel", ctx, int64(7), mock.Anything, false).Return(true, nil)
		f.notifier.On("BookingCancelled", ctx, mock.Anything, domain.ActorRoleRenter).Return()

		_, refundPercent, err := f.svc.CancelBooking(ctx, 1, domain.ActorRoleRenter, 7)
		assert.NoError(t, err)
		assert.Equal(t, 50, refundPercent)
	})

	t.Run("host cancellation sets the host flag", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(48*time.Hour), nil)
		f.bookingRepo.On("Cancel", ctx, int64(7), mock.Anything, true).Return(true, nil)
		f.notifier.On("BookingCancelled", ctx, mock.Anything, domain.ActorRoleHost).Return()

		booking, _, err := f.svc.CancelBooking(ctx, 10, domain.ActorRoleHost, 7)
		assert.NoError(t, err)
		assert.True(t, booking.IsCanceledByHost)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(48*time.Hour), nil)

		_, _, err := f.svc.CancelBooking(ctx, 99, domain.ActorRoleRenter, 7)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("already transitioned booking cannot be cancelled", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(48*time.Hour), nil)
		f.bookingRepo.On("Cancel", ctx, int64(7), mock.Anything, false).Return(false, nil)

		_, _, err := f.svc.CancelBooking(ctx, 1, domain.ActorRoleRenter, 7)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestBookingService_ExtendBooking(t *testing.T) {
	ctx := context.Background()
	to := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	confirmed := func() *domain.Booking {
		return &domain.Booking{
			ID:        7,
			Number:    "BK-2025-0042",
			VehicleID: 2,
			RenterID:  1,
			HostID:    10,
			FromDate:  to.Add(-48 * time.Hour),
			ToDate:    to,
			Status:    domain.BookingStatusConfirmed,
		}
	}

	t.Run("paid extension opens a checkout session", func(t *testing.T) {
		f := newBookingFixture()
		newTo := to.Add(2 * time.Hour)
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(), nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{}, nil)
		f.userRepo.On("GetByID", ctx, int64(1)).
			Return(&domain.User{ID: 1, Email: "renter@test.com", Name: "Renter"}, nil)
		f.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req payment.CheckoutSessionReq) bool {
			// Two hours at 2400/day pro-rates to 200.
			return req.AmountCents == 200
		})).Return(&payment.CheckoutSession{SessionID: "cs_ext", CheckoutURL: "https://pay.test/cs_ext"}, nil)
		f.txRepo.On("Create", ctx, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) {
				tx := args.Get(1).(*domain.Transaction)
				assert.Equal(t, domain.TransactionTypeExtend, tx.Type)
				assert.Equal(t, newTo, *tx.ExtendTo)
				tx.ID = 56
			}).Return(nil)

		_, checkoutURL, err := f.svc.ExtendBooking(ctx, 1, 7, newTo)
		assert.NoError(t, err)
		assert.Equal(t, "https://pay.test/cs_ext", checkoutURL)
		// The extension applies only when the payment settles.
		f.bookingRepo.AssertNotCalled(t, "ApplyExtension", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("extension must be whole hours", func(t *testing.T) {
		f := newBookingFixture()
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(confirmed(), nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)

		_, _, err := f.svc.ExtendBooking(ctx, 1, 7, to.Add(90*time.Minute))
		assert.ErrorIs(t, err, domain.ErrInvalidExtension)
		f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("self-booking extension applies immediately", func(t *testing.T) {
		f := newBookingFixture()
		newTo := to.Add(3 * time.Hour)
		b := confirmed()
		b.IsSelfBooking = true
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(b, nil)
		f.vehicleRepo.On("GetByID", ctx, int64(2)).Return(testVehicle(), nil)
		f.bookingRepo.On("FindOverlapping", ctx, int64(2), mock.Anything, mock.Anything, int64(7)).
			Return([]domain.Booking{}, nil)
		f.bookingRepo.On("ApplyExtension", ctx, int64(7), mock.MatchedBy(func(e domain.ExtendEntry) bool {
			return e.PrevToDate.Equal(to) && e.NewToDate.Equal(newTo) && e.TransactionID == 0
		})).Return(true, nil)

		booking, checkoutURL, err := f.svc.ExtendBooking(ctx, 1, 7, newTo)
		assert.NoError(t, err)
		assert.Empty(t, checkoutURL)
		assert.Equal(t, newTo, booking.ToDate)
		f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("COMPLETED booking cannot be extended", func(t *testing.T) {
		f := newBookingFixture()
		b := confirmed()
		b.Status = domain.BookingStatusCompleted
		f.bookingRepo.On("GetByID", ctx, int64(7)).Return(b, nil)

		_, _, err := f.svc.ExtendBooking(ctx, 1, 7, to.Add(2*time.Hour))
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	b := &domain.Booking{ID: 7, RenterID: 1, HostID: 10}
	f.bookingRepo.On("GetByID", ctx, int64(7)).Return(b, nil)

	got, err := f.svc.GetBooking(ctx, 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = f.svc.GetBooking(ctx, 10, 7)
	assert.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = f.svc.GetBooking(ctx, 99, 7)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBookingService_GetBooking_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	f.bookingRepo.On("GetByID", ctx, int64(404)).Return(nil, domain.ErrBookingNotFound)

	_, err := f.svc.GetBooking(ctx, 1, 404)
	assert.True(t, errors.Is(err, domain.ErrBookingNotFound))
}
