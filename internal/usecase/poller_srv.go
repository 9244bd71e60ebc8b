package usecase

import (
	"context"
	"time"

	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

// PollerService reconciles pending payments on a fixed interval.
// GatePay orders are actively queried because Gate webhooks are not
// reliable; the expiry sweep covers every gateway uniformly.
type PollerService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	gatepay   gateway.Poller
	interval  time.Duration
	window    time.Duration
	log       *zap.Logger
}

func NewPollerService(
	repo *repository.Repository,
	reconcile ReconcileService,
	gatepay gateway.Poller,
	config utils.PollerConfig,
	log *zap.Logger,
) *PollerService {
	return &PollerService{
		repo:      repo,
		reconcile: reconcile,
		gatepay:   gatepay,
		interval:  config.Interval,
		window:    config.PendingWindow,
		log:       log.With(zap.String("service", "poller")),
	}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (s *PollerService) Start(ctx context.Context) {
	s.log.Info("Payment poller started",
		zap.Duration("interval", s.interval),
		zap.Duration("pending_window", s.window),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Payment poller stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass: query fresh GatePay orders, then
// expire every stale pending booking.
func (s *PollerService) Sweep(ctx context.Context) {
	utils.PollerSweepsTotal.Inc()
	cutoff := time.Now().Add(-s.window)

	s.pollGatePay(ctx, cutoff)
	s.expireStale(ctx, cutoff)
}

func (s *PollerService) pollGatePay(ctx context.Context, cutoff time.Time) {
	pending, err := s.repo.Booking.FindPendingByMethodCreatedAfter(ctx, "Gate Pay", cutoff)
	if err != nil {
		s.log.Error("Failed to load pending GatePay orders", zap.Error(err))
		return
	}

	if len(pending) == 0 {
		s.log.Debug("No pending GatePay orders found")
		return
	}

	for _, booking := range pending {
		orderID := booking.PaymentDetails.TransactionID

		event, err := s.gatepay.QueryOrder(ctx, orderID)
		if err != nil {
			s.log.Warn("GatePay order query failed",
				zap.Error(err),
				zap.String("order_id", orderID),
			)
			continue
		}

		if event.Status != gateway.StatusSuccess {
			continue
		}

		if err := s.reconcile.HandleEvent(ctx, event); err != nil {
			s.log.Error("Failed to reconcile polled order",
				zap.Error(err),
				zap.String("order_id", orderID),
			)
		}
	}
}

func (s *PollerService) expireStale(ctx context.Context, cutoff time.Time) {
	expired, err := s.repo.Booking.FindPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to load expired pending bookings", zap.Error(err))
		return
	}

	if len(expired) == 0 {
		return
	}

	s.log.Info("Closing expired pending bookings", zap.Int("count", len(expired)))

	for _, booking := range expired {
		orderID := booking.PaymentDetails.TransactionID

		// Only GatePay has an order-close API; elsewhere the order
		// simply lapses upstream.
		if booking.PaymentDetails.PaymentMethod == "Gate Pay" {
			if err := s.gatepay.CloseOrder(ctx, orderID); err != nil {
				s.log.Warn("Failed to close expired GatePay order",
					zap.Error(err),
					zap.String("order_id", orderID),
				)
			}
		}

		if err := s.reconcile.CancelExpired(ctx, booking); err != nil {
			s.log.Error("Failed to cancel expired booking",
				zap.Error(err),
				zap.String("order_id", orderID),
			)
			continue
		}

		utils.PollerExpiredTotal.WithLabelValues(gatewayLabel(booking.PaymentDetails.PaymentMethod)).Inc()
	}
}

func gatewayLabel(paymentMethod string) string {
	switch paymentMethod {
	case "Binance Pay":
		return GatewayBinance
	case "Gate Pay":
		return GatewayGatePay
	case "Now Payment":
		return GatewayNOWPayments
	default:
		return "unknown"
	}
}
