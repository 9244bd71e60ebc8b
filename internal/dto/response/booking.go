package response

import (
	"time"

	"nesterlify-api/internal/data/entity"
)

type CheckoutResponse struct {
	OrderID     string `json:"orderId"`
	BookingType string `json:"bookingType"`
	// Data carries the gateway checkout payload as returned upstream
	// (prepay id and checkout URL for Binance/GatePay, invoice for NOWPayments).
	Data any `json:"data"`
}

type BookingResponse struct {
	ID            string                  `json:"id"`
	UserID        string                  `json:"user_id"`
	BookingType   entity.BookingType      `json:"bookingType"`
	BookingStatus entity.BookingStatus    `json:"bookingStatus"`
	Payment       PaymentDetailsResponse  `json:"paymentDetails"`
	Flights       []entity.FlightOffer    `json:"flights,omitempty"`
	Hotel         *entity.HotelStay       `json:"hotel,omitempty"`
	Car           *entity.CarTransfer     `json:"car,omitempty"`
	Vacation      *entity.VacationPackage `json:"vacation,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

type PaymentDetailsResponse struct {
	TransactionID    string               `json:"transactionId"`
	PaymentStatus    entity.PaymentStatus `json:"paymentStatus"`
	PaymentMethod    string               `json:"paymentMethod"`
	Amount           float64              `json:"amount"`
	Currency         string               `json:"currency"`
	GatewayPaymentID string               `json:"gatewayPaymentId,omitempty"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination Pagination        `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    Pagination             `json:"pagination"`
}

func NewBookingResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:            booking.ID.String(),
		UserID:        booking.UserID.String(),
		BookingType:   booking.BookingType,
		BookingStatus: booking.BookingStatus,
		Payment: PaymentDetailsResponse{
			TransactionID:    booking.PaymentDetails.TransactionID,
			PaymentStatus:    booking.PaymentDetails.PaymentStatus,
			PaymentMethod:    booking.PaymentDetails.PaymentMethod,
			Amount:           booking.PaymentDetails.Amount,
			Currency:         booking.PaymentDetails.Currency,
			GatewayPaymentID: booking.PaymentDetails.GatewayPaymentID,
		},
		Flights:   booking.Flights,
		Hotel:     booking.Hotel,
		Car:       booking.Car,
		Vacation:  booking.Vacation,
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}
}

func NewNotificationResponse(notification *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID.String(),
		Title:     notification.Title,
		Message:   notification.Message,
		Category:  notification.Category,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
