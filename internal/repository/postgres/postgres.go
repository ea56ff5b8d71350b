package postgres

import (
	"database/sql"

	"wheelshare-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.VehicleRepository
	repository.UserRepository
	repository.BookingRepository
	repository.TransactionRepository
	repository.ChargeConfigRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		VehicleRepository:      NewVehicleRepository(db),
		UserRepository:         NewUserRepository(db),
		BookingRepository:      NewBookingRepository(db),
		TransactionRepository:  NewTransactionRepository(db),
		ChargeConfigRepository: NewChargeConfigRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
