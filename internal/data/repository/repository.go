package repository

import (
	"nesterlify-api/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Booking      BookingRepository
	Notification NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Booking:      NewBookingRepository(db, log),
		Notification: NewNotificationRepository(db, log),
	}
}
