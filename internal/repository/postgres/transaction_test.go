package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/repository/postgres"
)

var transactionCols = []string{
	"id", "booking_id", "amount_cents", "currency", "type", "status",
	"platform_fee_cents", "host_commission_cents", "admin_commission_cents",
	"provider_session_id", "provider_intent_id", "extend_to", "host_transfer_id",
	"refund_id", "created_on", "updated_on",
}

func transactionRow(id int64, status domain.TransactionStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(transactionCols).AddRow(
		id, int64(7), int64(14800), "usd", string(domain.TransactionTypeBooking), string(status),
		int64(0), int64(0), int64(0),
		"cs_123", "", nil, nil,
		nil, now, now,
	)
}

func TestTransactionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	ctx := context.Background()

	tx := &domain.Transaction{
		BookingID:         7,
		AmountCents:       14800,
		Currency:          "usd",
		Type:              domain.TransactionTypeBooking,
		Status:            domain.TransactionStatusInitiated,
		ProviderSessionID: "cs_123",
	}

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(tx.BookingID, tx.AmountCents, tx.Currency, tx.Type, tx.Status,
			tx.ProviderSessionID, tx.ExtendTo, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))

	assert.NoError(t, repo.Create(ctx, tx))
	assert.Equal(t, int64(55), tx.ID)
}

func TestTransactionRepository_GetByProviderSessionID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE provider_session_id").
			WithArgs("cs_123").
			WillReturnRows(transactionRow(55, domain.TransactionStatusInitiated))

		tx, err := repo.GetByProviderSessionID(ctx, "cs_123")
		assert.NoError(t, err)
		assert.Equal(t, int64(55), tx.ID)
		assert.Equal(t, domain.TransactionStatusInitiated, tx.Status)
	})

	t.Run("unknown session maps to the domain error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE provider_session_id").
			WithArgs("cs_nope").
			WillReturnRows(sqlmock.NewRows(transactionCols))

		_, err := repo.GetByProviderSessionID(ctx, "cs_nope")
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})
}

func TestTransactionRepository_MarkSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	ctx := context.Background()
	charges := domain.Charges{PlatformFeeCents: 1480, HostCommissionCents: 10360, AdminCommissionCents: 2960}

	t.Run("settles an INITIATED transaction", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions\\s+SET status='SUCCESS'").
			WithArgs("pi_abc", charges.PlatformFeeCents, charges.HostCommissionCents,
				charges.AdminCommissionCents, sqlmock.AnyArg(), int64(55)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MarkSuccess(ctx, 55, "pi_abc", charges)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second settlement attempt matches nothing", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions\\s+SET status='SUCCESS'").
			WithArgs("pi_abc", charges.PlatformFeeCents, charges.HostCommissionCents,
				charges.AdminCommissionCents, sqlmock.AnyArg(), int64(55)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.MarkSuccess(ctx, 55, "pi_abc", charges)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestTransactionRepository_ListAwaitingTransfer(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM transactions t\\s+JOIN bookings b").
		WillReturnRows(transactionRow(55, domain.TransactionStatusSuccess))

	txs, err := repo.ListAwaitingTransfer(ctx)
	assert.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, int64(55), txs[0].ID)
}
