package postgres

import (
	"context"
	"database/sql"
	"time"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, booking_id, amount_cents, currency, type, status,
	platform_fee_cents, host_commission_cents, admin_commission_cents,
	provider_session_id, provider_intent_id, extend_to, host_transfer_id,
	refund_id, created_on, updated_on`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.BookingID, &t.AmountCents, &t.Currency, &t.Type, &t.Status,
		&t.PlatformFeeCents, &t.HostCommissionCents, &t.AdminCommissionCents,
		&t.ProviderSessionID, &t.ProviderIntentID, &t.ExtendTo, &t.HostTransferID,
		&t.RefundID, &t.CreatedOn, &t.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (booking_id, amount_cents, currency, type, status,
	              provider_session_id, extend_to, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		t.BookingID, t.AmountCents, t.Currency, t.Type, t.Status,
		t.ProviderSessionID, t.ExtendTo, now, now,
	).Scan(&t.ID)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	return t, err
}

func (r *transactionRepository) GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider_session_id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	return t, err
}

func (r *transactionRepository) MarkSuccess(ctx context.Context, id int64, intentID string, charges domain.Charges) (bool, error) {
	query := `UPDATE transactions
	          SET status='SUCCESS', provider_intent_id=$1,
	              platform_fee_cents=$2, host_commission_cents=$3, admin_commission_cents=$4,
	              updated_on=$5
	          WHERE id=$6 AND status='INITIATED'`
	res, err := r.db.ExecContext(ctx, query,
		intentID, charges.PlatformFeeCents, charges.HostCommissionCents,
		charges.AdminCommissionCents, time.Now(), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *transactionRepository) SetHostTransferID(ctx context.Context, id int64, transferID string) error {
	query := `UPDATE transactions SET host_transfer_id=$1, updated_on=$2
	          WHERE id=$3 AND host_transfer_id IS NULL`
	_, err := r.db.ExecContext(ctx, query, transferID, time.Now(), id)
	return err
}

func (r *transactionRepository) SetRefundID(ctx context.Context, id int64, refundID string) error {
	query := `UPDATE transactions SET refund_id=$1, updated_on=$2
	          WHERE id=$3 AND refund_id IS NULL`
	_, err := r.db.ExecContext(ctx, query, refundID, time.Now(), id)
	return err
}

func (r *transactionRepository) ListAwaitingTransfer(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT t.id, t.booking_id, t.amount_cents, t.currency, t.type, t.status,
	                 t.platform_fee_cents, t.host_commission_cents, t.admin_commission_cents,
	                 t.provider_session_id, t.provider_intent_id, t.extend_to, t.host_transfer_id,
	                 t.refund_id, t.created_on, t.updated_on
	          FROM transactions t
	          JOIN bookings b ON b.id = t.booking_id
	          WHERE t.status = 'SUCCESS'
	            AND t.host_transfer_id IS NULL
	            AND t.host_commission_cents > 0
	            AND b.status = 'COMPLETED'
	          ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}
