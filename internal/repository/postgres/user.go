package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"wheelshare-backend/internal/domain"
	"wheelshare-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, email, name, COALESCE(payout_account_id, ''), created_on, updated_on
	          FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.PayoutAccountID, &u.CreatedOn, &u.UpdatedOn,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
