package wire

import (
	"nesterlify-api/internal/adaptor"
	"nesterlify-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	notificationHandler *adaptor.NotificationHandler,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.UserContext(log))

		// GET /api/v1/bookings - Booking history for the current user
		r.Get("/api/v1/bookings", bookingHandler.GetUserBookings)

		// GET /api/v1/bookings/{orderId} - Single booking by order id
		r.Get("/api/v1/bookings/{orderId}", bookingHandler.GetBookingByOrderID)

		// GET /api/v1/notifications - In-app notifications
		r.Get("/api/v1/notifications", notificationHandler.GetUserNotifications)

		// PATCH /api/v1/notifications/{id}/read - Mark one as read
		r.Patch("/api/v1/notifications/{id}/read", notificationHandler.MarkRead)
	})
}
