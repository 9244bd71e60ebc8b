package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of pending bookings created",
	}, []string{"gateway", "booking_type"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Total number of gateway webhooks received",
	}, []string{"gateway"})

	WebhooksRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_rejected_total",
		Help: "Total number of webhooks rejected before state change",
	}, []string{"gateway", "reason"})

	ReconcileTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_transitions_total",
		Help: "Total number of reconciliation transitions applied",
	}, []string{"outcome"})

	CommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "provider_commit_latency_seconds",
		Help:    "Latency of provider commit (ticketing/confirmation) calls",
		Buckets: prometheus.DefBuckets,
	})

	CommitFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_commit_failed_total",
		Help: "Total number of failed provider commit calls",
	}, []string{"booking_type"})

	PollerSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poller_sweeps_total",
		Help: "Total number of poller sweeps executed",
	})

	PollerExpiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_expired_total",
		Help: "Total number of pending bookings expired by the sweep",
	}, []string{"gateway"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
