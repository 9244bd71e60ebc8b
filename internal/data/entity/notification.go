package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseSimple
	UserID   uuid.UUID `db:"user_id"`
	Title    string    `db:"title"`
	Message  string    `db:"message"`
	Category string    `db:"category"`
	Read     bool      `db:"read"`
}

func NewNotification(userID uuid.UUID, title, message, category string) *Notification {
	return &Notification{
		BaseSimple: BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
	}
}
