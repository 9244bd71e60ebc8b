package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nesterlify-api/internal/broker"
	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/pkg/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const processedMarkerTTL = 24 * time.Hour

// ReconcileService applies normalized gateway events onto booking
// records. It is the single writer of payment state: webhook handlers
// and the poller both feed it.
type ReconcileService interface {
	// HandleEvent applies one payment event. The returned error means
	// the event could not be durably processed and the gateway should
	// redeliver it; business failures resolve to terminal states and
	// return nil.
	HandleEvent(ctx context.Context, event *gateway.Event) error

	// CancelExpired resolves a pending booking whose payment window has
	// lapsed: cancelled booking, failed payment.
	CancelExpired(ctx context.Context, booking *entity.Booking) error
}

type reconcileService struct {
	repo     *repository.Repository
	booking  BookingService
	notifier NotificationService
	producer *broker.Producer
	cache    *redis.Client
	log      *zap.Logger
}

func NewReconcileService(
	repo *repository.Repository,
	booking BookingService,
	notifier NotificationService,
	producer *broker.Producer,
	cache *redis.Client,
	log *zap.Logger,
) ReconcileService {
	return &reconcileService{
		repo:     repo,
		booking:  booking,
		notifier: notifier,
		producer: producer,
		cache:    cache,
		log:      log.With(zap.String("service", "reconcile")),
	}
}

func (s *reconcileService) HandleEvent(ctx context.Context, event *gateway.Event) error {
	log := s.log.With(
		zap.String("order_id", event.OrderID),
		zap.String("raw_status", event.RawStatus),
	)

	booking, err := s.repo.Booking.FindByTransactionID(ctx, event.OrderID)
	if err != nil {
		// Store I/O failure: surface it so the gateway retries.
		return err
	}
	if booking == nil {
		return fmt.Errorf("%w: booking %s", utils.ErrNotFound, event.OrderID)
	}

	// Duplicate-success guard: a redelivered success for an already
	// completed payment with the same gateway payment id is a no-op.
	if booking.PaymentDetails.PaymentStatus.Terminal() {
		if event.Status == gateway.StatusSuccess &&
			booking.PaymentDetails.PaymentStatus == entity.PaymentStatusCompleted &&
			booking.PaymentDetails.GatewayPaymentID == event.GatewayPaymentID {
			log.Info("Duplicate success event ignored")
		} else {
			log.Warn("Event on terminal booking ignored",
				zap.String("payment_status", string(booking.PaymentDetails.PaymentStatus)))
		}
		utils.ReconcileTransitionsTotal.WithLabelValues("ignored_terminal").Inc()
		return nil
	}

	// Fast-path dedupe across replays within the marker TTL. The
	// conditional update below stays authoritative.
	if s.seenRecently(ctx, event) {
		log.Info("Event already processed")
		utils.ReconcileTransitionsTotal.WithLabelValues("deduplicated").Inc()
		return nil
	}

	switch event.Status {
	case gateway.StatusSuccess:
		err = s.applySuccess(ctx, booking, event, log)
	case gateway.StatusWaiting:
		_, err = s.repo.Booking.UpdateStatusIfNotTerminal(ctx, event.OrderID,
			entity.BookingStatusPending, entity.PaymentStatusPending, event.GatewayPaymentID)
		if err == nil {
			utils.ReconcileTransitionsTotal.WithLabelValues("waiting").Inc()
		}
	case gateway.StatusProcessing:
		_, err = s.repo.Booking.UpdateStatusIfNotTerminal(ctx, event.OrderID,
			entity.BookingStatusPending, entity.PaymentStatusProcessing, event.GatewayPaymentID)
		if err == nil {
			utils.ReconcileTransitionsTotal.WithLabelValues("processing").Inc()
		}
	case gateway.StatusFailed:
		err = s.applyFailure(ctx, booking, event, log)
	default:
		return fmt.Errorf("%w: %q", utils.ErrUnknownStatus, event.Status)
	}

	if err != nil {
		// Transition not durably applied: no marker, so the redelivery
		// is processed instead of swallowed.
		return err
	}

	s.markProcessed(ctx, event)
	return nil
}

func (s *reconcileService) applySuccess(ctx context.Context, booking *entity.Booking, event *gateway.Event, log *zap.Logger) error {
	orderID := booking.PaymentDetails.TransactionID

	if err := s.booking.Commit(ctx, booking); err != nil {
		// Provider commit failed after a successful payment. The failure
		// is contained: booking goes terminal failed and the gateway
		// still gets a success-shaped ack so it stops redelivering.
		log.Error("Provider commit failed", zap.Error(err))
		utils.CommitFailedTotal.WithLabelValues(string(booking.BookingType)).Inc()

		if _, updateErr := s.repo.Booking.UpdateStatusIfNotTerminal(ctx, orderID,
			entity.BookingStatusFailed, entity.PaymentStatusFailed, event.GatewayPaymentID); updateErr != nil {
			return updateErr
		}

		utils.ReconcileTransitionsTotal.WithLabelValues("commit_failed").Inc()
		s.notifyOutcome(ctx, booking, false)
		s.publish(ctx, booking, broker.EventPaymentFailed)
		return nil
	}

	updated, err := s.repo.Booking.UpdateStatusIfNotTerminal(ctx, orderID,
		entity.BookingStatusConfirmed, entity.PaymentStatusCompleted, event.GatewayPaymentID)
	if err != nil {
		return err
	}
	if !updated {
		// Lost the race against a concurrent delivery; the other writer
		// owns the terminal state.
		log.Info("Status already settled concurrently")
		utils.ReconcileTransitionsTotal.WithLabelValues("ignored_terminal").Inc()
		return nil
	}

	log.Info("Payment completed, booking confirmed")
	utils.ReconcileTransitionsTotal.WithLabelValues("completed").Inc()
	s.notifyOutcome(ctx, booking, true)
	s.publish(ctx, booking, broker.EventPaymentCompleted)
	return nil
}

func (s *reconcileService) applyFailure(ctx context.Context, booking *entity.Booking, event *gateway.Event, log *zap.Logger) error {
	updated, err := s.repo.Booking.UpdateStatusIfNotTerminal(ctx, booking.PaymentDetails.TransactionID,
		entity.BookingStatusFailed, entity.PaymentStatusFailed, event.GatewayPaymentID)
	if err != nil {
		return err
	}
	if updated {
		log.Info("Payment failed, booking failed")
		utils.ReconcileTransitionsTotal.WithLabelValues("failed").Inc()
		s.notifyOutcome(ctx, booking, false)
		s.publish(ctx, booking, broker.EventPaymentFailed)
	}
	return nil
}

func (s *reconcileService) CancelExpired(ctx context.Context, booking *entity.Booking) error {
	orderID := booking.PaymentDetails.TransactionID

	updated, err := s.repo.Booking.UpdateStatusIfNotTerminal(ctx, orderID,
		entity.BookingStatusCancelled, entity.PaymentStatusFailed, "")
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}

	s.log.Info("Expired pending booking cancelled",
		zap.String("order_id", orderID),
		zap.String("payment_method", booking.PaymentDetails.PaymentMethod),
	)
	utils.ReconcileTransitionsTotal.WithLabelValues("cancelled").Inc()
	s.publish(ctx, booking, broker.EventBookingCancelled)
	return nil
}

func dedupeKey(event *gateway.Event) string {
	return fmt.Sprintf("webhook:processed:%s:%s:%s", event.OrderID, event.RawStatus, event.GatewayPaymentID)
}

func (s *reconcileService) seenRecently(ctx context.Context, event *gateway.Event) bool {
	if s.cache == nil {
		return false
	}

	exists, err := s.cache.Exists(ctx, dedupeKey(event)).Result()
	if err != nil {
		s.log.Warn("Dedupe marker unavailable", zap.Error(err))
		return false
	}
	return exists > 0
}

// markProcessed records the event only after its transition is durable,
// so a failed store write is retried by the gateway instead of being
// swallowed by the marker.
func (s *reconcileService) markProcessed(ctx context.Context, event *gateway.Event) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, dedupeKey(event), 1, processedMarkerTTL).Err(); err != nil {
		s.log.Warn("Dedupe marker not written", zap.Error(err))
	}
}

func (s *reconcileService) notifyOutcome(ctx context.Context, booking *entity.Booking, success bool) {
	orderID := booking.PaymentDetails.TransactionID
	bookingType := string(booking.BookingType)

	var title, message string
	if success {
		title = "Payment Successful"
		message = fmt.Sprintf(
			"Dear Customer,\n\nYour payment for %s booking with order ID %s has been successfully processed.\n\nThank you for choosing our service.\n\nBest regards,\nThe Nesterlify Team",
			bookingType, orderID)
	} else {
		title = fmt.Sprintf("%s - Booking Failed", strings.ToUpper(bookingType))
		message = fmt.Sprintf(
			"Dear Customer,\n\nYour %s booking with order ID %s has failed. Please try again or contact support.\n\nBest regards,\nThe Nesterlify Team",
			bookingType, orderID)
	}

	s.notifier.Notify(ctx, booking.UserID, contactEmail(booking), title, message, bookingType)
}

func (s *reconcileService) publish(ctx context.Context, booking *entity.Booking, eventType string) {
	event := broker.BookingEvent{
		Type:          eventType,
		OrderID:       booking.PaymentDetails.TransactionID,
		UserID:        booking.UserID.String(),
		BookingType:   string(booking.BookingType),
		PaymentMethod: booking.PaymentDetails.PaymentMethod,
		Amount:        booking.PaymentDetails.Amount,
		Currency:      booking.PaymentDetails.Currency,
		Timestamp:     time.Now(),
	}

	if err := s.producer.PublishEvent(ctx, event.OrderID, event); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", eventType),
		)
	}
}

// contactEmail picks the booking's contact address: hotel bookings carry
// one directly, flights and transfers carry it on the lead traveler.
func contactEmail(booking *entity.Booking) string {
	switch booking.BookingType {
	case entity.BookingTypeHotel:
		if booking.Hotel != nil {
			return booking.Hotel.Email
		}
	case entity.BookingTypeFlight:
		if len(booking.Flights) > 0 && len(booking.Flights[0].Travelers) > 0 {
			return booking.Flights[0].Travelers[0].Contact.Email
		}
	case entity.BookingTypeCar:
		if booking.Car != nil && len(booking.Car.Passengers) > 0 {
			return booking.Car.Passengers[0].Contacts.Email
		}
	}
	return ""
}
