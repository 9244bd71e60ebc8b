package usecase

import (
	"nesterlify-api/internal/broker"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/pkg/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Service struct {
	Booking      BookingService
	Payment      PaymentService
	Reconcile    ReconcileService
	Notification NotificationService
	Poller       *PollerService
}

type Dependencies struct {
	Repo        *repository.Repository
	Adapters    map[string]gateway.Adapter
	NOWPayments *gateway.NOWPaymentsAdapter
	GatePay     gateway.Poller
	Flights     FlightProvider
	Stays       StayProvider
	Producer    *broker.Producer
	Cache       *redis.Client
	Mailer      *utils.Mailer
}

func NewService(deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	notification := NewNotificationService(deps.Repo, deps.Mailer, log)
	booking := NewBookingService(deps.Repo, deps.Flights, deps.Stays, log)
	reconcile := NewReconcileService(deps.Repo, booking, notification, deps.Producer, deps.Cache, log)
	payment := NewPaymentService(deps.Adapters, deps.NOWPayments, booking, notification, deps.Producer, log)
	poller := NewPollerService(deps.Repo, reconcile, deps.GatePay, config.Poller, log)

	return &Service{
		Booking:      booking,
		Payment:      payment,
		Reconcile:    reconcile,
		Notification: notification,
		Poller:       poller,
	}
}
