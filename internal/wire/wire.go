// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"

	"nesterlify-api/internal/adaptor"
	"nesterlify-api/internal/broker"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/internal/provider"
	"nesterlify-api/internal/usecase"
	"nesterlify-api/pkg/middleware"
	"nesterlify-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router *chi.Mux
	Poller *usecase.PollerService
}

// Wiring menginisialisasi semua dependencies
func Wiring(repo *repository.Repository, cache *redis.Client, config *utils.Config, logger *zap.Logger) *App {
	// Gateway adapters
	binance := gateway.NewBinanceAdapter(config.Binance, logger)
	gatepay := gateway.NewGatePayAdapter(config.GatePay, logger)
	nowpayments := gateway.NewNOWPaymentsAdapter(config.NOWPayments, cache, logger)

	adapters := map[string]gateway.Adapter{
		usecase.GatewayBinance:     binance,
		usecase.GatewayGatePay:     gatepay,
		usecase.GatewayNOWPayments: nowpayments,
	}

	// Travel providers
	amadeus := provider.NewAmadeusClient(config.Amadeus, logger)
	duffel := provider.NewDuffelClient(config.Duffel, logger)

	// Event producer (nil-safe without brokers configured)
	producer := broker.NewProducer(config.Kafka.Brokers, config.Kafka.Topic, logger)

	mailer := utils.NewMailer(config.Email, logger)

	// Initialize services dan handlers
	service := usecase.NewService(usecase.Dependencies{
		Repo:        repo,
		Adapters:    adapters,
		NOWPayments: nowpayments,
		GatePay:     gatepay,
		Flights:     amadeus,
		Stays:       duffel,
		Producer:    producer,
		Cache:       cache,
		Mailer:      mailer,
	}, config, logger)

	handler := adaptor.NewHandler(service, logger)

	// Setup router
	router := setupRouter(handler, logger)

	return &App{
		Router: router,
		Poller: service.Poller,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wirePayment(r, handler.Payment, logger)
	wireBooking(r, handler.Booking, handler.Notification, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// StartPoller runs the payment poller until ctx is cancelled.
func (a *App) StartPoller(ctx context.Context) {
	go a.Poller.Start(ctx)
}
