package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nesterlify-api/internal/broker"
	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/dto/request"
	"nesterlify-api/internal/dto/response"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway keys as they appear in the URL path.
const (
	GatewayBinance     = "binance"
	GatewayGatePay     = "gatepay"
	GatewayNOWPayments = "nowpayments"
)

type PaymentService interface {
	// Checkout creates a pending booking and opens a payment order on
	// the named gateway.
	Checkout(ctx context.Context, gatewayKey string, userID uuid.UUID, req *request.CreateOrderRequest) (*response.CheckoutResponse, error)

	// Status queries the gateway order state by merchant order id.
	Status(ctx context.Context, gatewayKey, orderID string) (*gateway.Event, error)

	// Currencies lists the NOWPayments pay currencies.
	Currencies(ctx context.Context) ([]gateway.Currency, error)

	// NowPaymentStatus proxies the NOWPayments payment lookup by the
	// gateway's own payment id.
	NowPaymentStatus(ctx context.Context, paymentID string) (json.RawMessage, error)

	// Adapter resolves the gateway adapter for webhook handling.
	Adapter(gatewayKey string) (gateway.Adapter, error)
}

type paymentService struct {
	adapters    map[string]gateway.Adapter
	nowpayments *gateway.NOWPaymentsAdapter
	booking     BookingService
	notifier    NotificationService
	producer    *broker.Producer
	log         *zap.Logger
}

func NewPaymentService(
	adapters map[string]gateway.Adapter,
	nowpayments *gateway.NOWPaymentsAdapter,
	booking BookingService,
	notifier NotificationService,
	producer *broker.Producer,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		adapters:    adapters,
		nowpayments: nowpayments,
		booking:     booking,
		notifier:    notifier,
		producer:    producer,
		log:         log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) Adapter(gatewayKey string) (gateway.Adapter, error) {
	adapter, ok := s.adapters[gatewayKey]
	if !ok {
		return nil, fmt.Errorf("%w: unknown gateway %q", utils.ErrNotFound, gatewayKey)
	}
	return adapter, nil
}

func (s *paymentService) Checkout(ctx context.Context, gatewayKey string, userID uuid.UUID, req *request.CreateOrderRequest) (*response.CheckoutResponse, error) {
	adapter, err := s.Adapter(gatewayKey)
	if err != nil {
		return nil, err
	}

	booking, err := s.booking.PrepareBooking(ctx, userID, adapter.Name(), req)
	if err != nil {
		return nil, err
	}

	orderID := booking.PaymentDetails.TransactionID
	email := contactEmail(booking)

	raw, err := adapter.CreateOrder(ctx, gateway.CheckoutInput{
		OrderID:       orderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BookingType:   req.BookingType,
		PayCurrency:   req.PayCurrency,
		CustomerEmail: email,
	})
	if err != nil {
		// The pending booking stays; the expiry sweep resolves it when
		// the customer never retries.
		s.log.Error("Gateway order creation failed",
			zap.Error(err),
			zap.String("gateway", gatewayKey),
			zap.String("order_id", orderID),
		)
		return nil, err
	}

	utils.OrdersCreatedTotal.WithLabelValues(gatewayKey, req.BookingType).Inc()

	bookingType := strings.ToUpper(req.BookingType)
	s.notifier.Notify(ctx, userID, email,
		fmt.Sprintf("%s - Booking Initiated", bookingType),
		fmt.Sprintf(
			"Dear Customer,\n\nYour %s booking has been successfully initiated, please proceed with payment. Your order ID is %s.\n\nThank you for choosing our service.\n\nBest regards,\nThe Nesterlify Team",
			req.BookingType, orderID),
		req.BookingType,
	)

	s.publishCreated(ctx, booking)

	return &response.CheckoutResponse{
		OrderID:     orderID,
		BookingType: req.BookingType,
		Data:        raw,
	}, nil
}

func (s *paymentService) Status(ctx context.Context, gatewayKey, orderID string) (*gateway.Event, error) {
	adapter, err := s.Adapter(gatewayKey)
	if err != nil {
		return nil, err
	}

	poller, ok := adapter.(interface {
		QueryOrder(ctx context.Context, orderID string) (*gateway.Event, error)
	})
	if !ok {
		return nil, fmt.Errorf("%w: gateway %q does not support order queries", utils.ErrValidation, gatewayKey)
	}

	return poller.QueryOrder(ctx, orderID)
}

func (s *paymentService) Currencies(ctx context.Context) ([]gateway.Currency, error) {
	return s.nowpayments.Currencies(ctx)
}

func (s *paymentService) NowPaymentStatus(ctx context.Context, paymentID string) (json.RawMessage, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: missing paymentId", utils.ErrValidation)
	}
	return s.nowpayments.PaymentStatus(ctx, paymentID)
}

func (s *paymentService) publishCreated(ctx context.Context, booking *entity.Booking) {
	event := broker.BookingEvent{
		Type:          broker.EventBookingCreated,
		OrderID:       booking.PaymentDetails.TransactionID,
		UserID:        booking.UserID.String(),
		BookingType:   string(booking.BookingType),
		PaymentMethod: booking.PaymentDetails.PaymentMethod,
		Amount:        booking.PaymentDetails.Amount,
		Currency:      booking.PaymentDetails.Currency,
		Timestamp:     time.Now(),
	}

	if err := s.producer.PublishEvent(ctx, event.OrderID, event); err != nil {
		s.log.Warn("Failed to publish booking created event", zap.Error(err))
	}
}
