package broker

import "time"

// Event types published on the booking lifecycle topic.
const (
	EventBookingCreated   = "booking.created"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventBookingCancelled = "booking.cancelled"
)

type BookingEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	BookingType   string    `json:"booking_type"`
	PaymentMethod string    `json:"payment_method"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}
