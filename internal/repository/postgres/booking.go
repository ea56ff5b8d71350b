package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, number, vehicle_id, renter_id, host_id, transaction_id,
	from_date, to_date, total_amount_cents, deposit_cents, is_self_booking,
	is_canceled_by_renter, is_canceled_by_host, deposit_refundable_at,
	is_deposit_refunded, checked_in_at, checked_out_at, status, extend_history,
	created_on, updated_on`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var history []byte
	err := row.Scan(
		&b.ID, &b.Number, &b.VehicleID, &b.RenterID, &b.HostID, &b.TransactionID,
		&b.FromDate, &b.ToDate, &b.TotalAmountCents, &b.DepositCents, &b.IsSelfBooking,
		&b.IsCanceledByRenter, &b.IsCanceledByHost, &b.DepositRefundableAt,
		&b.IsDepositRefunded, &b.CheckedInAt, &b.CheckedOutAt, &b.Status, &history,
		&b.CreatedOn, &b.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &b.ExtendHistory); err != nil {
			return nil, fmt.Errorf("decode extend_history for booking %d: %w", b.ID, err)
		}
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (number, vehicle_id, renter_id, host_id, from_date, to_date,
	              total_amount_cents, deposit_cents, is_self_booking, status, extend_history, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '[]'::jsonb, $11, $12)
	          RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		b.Number, b.VehicleID, b.RenterID, b.HostID, b.FromDate, b.ToDate,
		b.TotalAmountCents, b.DepositCents, b.IsSelfBooking, b.Status, now, now,
	).Scan(&b.ID)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *bookingRepository) list(ctx context.Context, column string, actorID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`
	args := []interface{}{actorID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *bookingRepository) ListByHost(ctx context.Context, hostID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "host_id", hostID, status, page, pageSize)
}

func (r *bookingRepository) LastNumberForYear(ctx context.Context, prefix string, year int) (string, error) {
	var number string
	query := `SELECT number FROM bookings WHERE number LIKE $1 ORDER BY id DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, fmt.Sprintf("%s-%d-%%", prefix, year)).Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return number, err
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, vehicleID int64, from, to time.Time, excludeID int64) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	          FROM bookings
	          WHERE vehicle_id = $1
	            AND status IN ('CONFIRMED', 'ONGOING')
	            AND from_date < $3
	            AND to_date > $2
	            AND ($4 = 0 OR id != $4)
	          ORDER BY from_date`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, from, to, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) UpdateIfStatus(ctx context.Context, id int64, expected, next domain.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status=$1, updated_on=$2 WHERE id=$3 AND status=$4`
	res, err := r.db.ExecContext(ctx, query, next, time.Now(), id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) SetTransactionID(ctx context.Context, id, transactionID int64) error {
	query := `UPDATE bookings SET transaction_id=$1, updated_on=$2 WHERE id=$3`
	_, err := r.db.ExecContext(ctx, query, transactionID, time.Now(), id)
	return err
}

func (r *bookingRepository) Cancel(ctx context.Context, id int64, from []domain.BookingStatus, byHost bool) (bool, error) {
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}
	query := `UPDATE bookings
	          SET status='CANCELLED',
	              is_canceled_by_renter = (NOT $1),
	              is_canceled_by_host = $1,
	              updated_on=$2
	          WHERE id=$3 AND status = ANY($4)`
	res, err := r.db.ExecContext(ctx, query, byHost, time.Now(), id, pq.Array(statuses))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE bookings
	          SET status='ONGOING', checked_in_at=$1, updated_on=$1
	          WHERE id=$2
	            AND (status='CONFIRMED' OR (status='REQUESTED' AND is_self_booking))`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) MarkCheckedOut(ctx context.Context, id int64, at, depositRefundableAt time.Time) (bool, error) {
	query := `UPDATE bookings
	          SET status='COMPLETED', checked_out_at=$1, deposit_refundable_at=$2, updated_on=$1
	          WHERE id=$3 AND status='ONGOING'`
	res, err := r.db.ExecContext(ctx, query, at, depositRefundableAt, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) MarkDepositRefunded(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE bookings SET is_deposit_refunded=true, updated_on=$1
	          WHERE id=$2 AND is_deposit_refunded=false`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) ApplyExtension(ctx context.Context, id int64, entry domain.ExtendEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encode extend entry: %w", err)
	}
	// The to_date predicate makes a duplicated success event a no-op: the first
	// delivery moves the end date, the second no longer matches.
	query := `UPDATE bookings
	          SET to_date=$1, extend_history = extend_history || $2::jsonb, updated_on=$3
	          WHERE id=$4 AND status IN ('CONFIRMED','ONGOING') AND to_date=$5`
	res, err := r.db.ExecContext(ctx, query, entry.NewToDate, payload, time.Now(), id, entry.PrevToDate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) listWhere(ctx context.Context, where string, args ...interface{}) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListEligibleForCheckIn(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	return r.listWhere(ctx,
		`from_date <= $1 AND to_date > $1
		 AND (status='CONFIRMED' OR (status='REQUESTED' AND is_self_booking))`, now)
}

func (r *bookingRepository) ListEligibleForCheckOut(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	return r.listWhere(ctx, `status='ONGOING' AND to_date <= $1`, now)
}

func (r *bookingRepository) ListDepositRefundable(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	return r.listWhere(ctx,
		`status='COMPLETED' AND is_deposit_refunded=false AND is_self_booking=false
		 AND transaction_id IS NOT NULL AND deposit_refundable_at <= $1`, now)
}
