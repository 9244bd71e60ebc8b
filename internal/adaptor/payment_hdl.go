package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nesterlify-api/internal/dto/request"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/internal/usecase"
	"nesterlify-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Webhook bodies are small JSON documents; anything larger is abuse.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	payment   usecase.PaymentService
	reconcile usecase.ReconcileService
	log       *zap.Logger
}

func NewPaymentHandler(payment usecase.PaymentService, reconcile usecase.ReconcileService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payment:   payment,
		reconcile: reconcile,
		log:       log.With(zap.String("handler", "payment")),
	}
}

// CreateOrder handles POST /api/v1/{gateway}/create-order (protected)
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Unauthorized, pls login")
		return
	}

	gatewayKey := chi.URLParam(r, "gateway")

	var req request.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payment.Checkout(r.Context(), gatewayKey, userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create order")
		return
	}

	utils.ResponseSuccess(w, "Payment request successful", result)
}

// Webhook handles POST /api/v1/{gateway}/webhook (public, signed)
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	gatewayKey := chi.URLParam(r, "gateway")
	utils.WebhooksReceivedTotal.WithLabelValues(gatewayKey).Inc()

	adapter, err := h.payment.Adapter(gatewayKey)
	if err != nil {
		utils.ResponseNotFound(w, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read request body", nil)
		return
	}

	// Signature first. An unsigned or tampered webhook never reaches
	// the booking store.
	if err := adapter.VerifyWebhook(r.Header, body); err != nil {
		h.log.Warn("Webhook signature rejected",
			zap.Error(err),
			zap.String("gateway", gatewayKey),
		)
		utils.WebhooksRejectedTotal.WithLabelValues(gatewayKey, "signature").Inc()
		utils.ResponseUnauthorized(w, "Invalid signature")
		return
	}

	event, err := adapter.ParseWebhook(body)
	if err != nil {
		h.log.Warn("Webhook payload rejected",
			zap.Error(err),
			zap.String("gateway", gatewayKey),
		)
		utils.WebhooksRejectedTotal.WithLabelValues(gatewayKey, "payload").Inc()
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.reconcile.HandleEvent(r.Context(), event); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			utils.ResponseNotFound(w, "Booking not found")
			return
		}
		// Store failure: 500 so the gateway redelivers.
		h.log.Error("Webhook processing failed",
			zap.Error(err),
			zap.String("gateway", gatewayKey),
			zap.String("order_id", event.OrderID),
		)
		utils.ResponseInternalError(w, "Failed to process webhook")
		return
	}

	utils.ResponseWebhookAck(w, event.Status != gateway.StatusFailed)
}

// PaymentStatus handles POST /api/v1/{gateway}/payment-status (protected)
func (h *PaymentHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	gatewayKey := chi.URLParam(r, "gateway")

	var req request.PaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		utils.ResponseBadRequest(w, "Missing orderId", nil)
		return
	}

	event, err := h.payment.Status(r.Context(), gatewayKey, req.OrderID)
	if err != nil {
		handleServiceError(w, h.log, err, "payment status")
		return
	}

	utils.ResponseSuccess(w, event.RawStatus, map[string]any{
		"orderId":   event.OrderID,
		"status":    event.RawStatus,
		"paymentId": event.GatewayPaymentID,
	})
}

// Currencies handles GET /api/v1/nowpayments/currencies (public)
func (h *PaymentHandler) Currencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.payment.Currencies(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get currencies")
		return
	}

	utils.ResponseSuccess(w, "Currencies get successful", currencies)
}

// NowPaymentStatus handles GET /api/v1/nowpayments/payment-status (protected)
func (h *PaymentHandler) NowPaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("paymentId")

	raw, err := h.payment.NowPaymentStatus(r.Context(), paymentID)
	if err != nil {
		handleServiceError(w, h.log, err, "nowpayments status")
		return
	}

	utils.ResponseSuccess(w, "Payment status retrieved", json.RawMessage(raw))
}
