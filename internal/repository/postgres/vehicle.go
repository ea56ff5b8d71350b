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

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	var days []int64
	var hours []string
	var blocked []byte
	query := `SELECT id, host_id, name, is_active, daily_price_cents, deposit_cents,
	                 available_days, available_hours, default_start_time, default_end_time,
	                 blocked_dates, timezone, created_on, updated_on
	          FROM vehicles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.HostID, &v.Name, &v.IsActive, &v.DailyPriceCents, &v.DepositCents,
		pq.Array(&days), pq.Array(&hours), &v.DefaultStartTime, &v.DefaultEndTime,
		&blocked, &v.Timezone, &v.CreatedOn, &v.UpdatedOn,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		v.AvailableDays = append(v.AvailableDays, time.Weekday(d))
	}
	v.AvailableHours = hours
	if len(blocked) > 0 {
		if err := json.Unmarshal(blocked, &v.BlockedDates); err != nil {
			return nil, fmt.Errorf("decode blocked_dates for vehicle %d: %w", id, err)
		}
	}
	return v, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	days := make([]int64, 0, len(v.AvailableDays))
	for _, d := range v.AvailableDays {
		days = append(days, int64(d))
	}
	blocked, err := json.Marshal(v.BlockedDates)
	if err != nil {
		return fmt.Errorf("encode blocked_dates: %w", err)
	}
	query := `UPDATE vehicles
	          SET name=$1, is_active=$2, daily_price_cents=$3, deposit_cents=$4,
	              available_days=$5, available_hours=$6, default_start_time=$7,
	              default_end_time=$8, blocked_dates=$9, timezone=$10, updated_on=$11
	          WHERE id=$12`
	_, err = r.db.ExecContext(ctx, query,
		v.Name, v.IsActive, v.DailyPriceCents, v.DepositCents,
		pq.Array(days), pq.Array(v.AvailableHours), v.DefaultStartTime,
		v.DefaultEndTime, blocked, v.Timezone, time.Now(), v.ID,
	)
	return err
}
