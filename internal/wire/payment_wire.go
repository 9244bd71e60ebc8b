package wire

import (
	"nesterlify-api/internal/adaptor"
	"nesterlify-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, log *zap.Logger) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.UserContext(log))

		// POST /api/v1/{gateway}/create-order - Open a payment order
		r.Post("/api/v1/{gateway}/create-order", paymentHandler.CreateOrder)

		// POST /api/v1/{gateway}/payment-status - Query gateway order state
		r.Post("/api/v1/{gateway}/payment-status", paymentHandler.PaymentStatus)

		// GET /api/v1/nowpayments/payment-status?paymentId= - Upstream payment lookup
		r.Get("/api/v1/nowpayments/payment-status", paymentHandler.NowPaymentStatus)
	})

	// ==================== PUBLIC ROUTES ====================
	// Webhooks are authenticated by signature, not by user session
	r.Post("/api/v1/{gateway}/webhook", paymentHandler.Webhook)

	// GET /api/v1/nowpayments/currencies - Pay currency listing
	r.Get("/api/v1/nowpayments/currencies", paymentHandler.Currencies)
}
