package usecase

import (
	"context"
	"errors"
	"testing"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEventSuccessConfirmsBooking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1001", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))

	err := env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:          "ORD-1001",
		GatewayPaymentID: "PAY-77",
		RawStatus:        "PAY_SUCCESS",
		Status:           gateway.StatusSuccess,
	})
	require.NoError(t, err)

	stored := env.bookings.get("ORD-1001")
	assert.Equal(t, entity.BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusCompleted, stored.PaymentDetails.PaymentStatus)
	assert.Equal(t, "PAY-77", stored.PaymentDetails.GatewayPaymentID)
	assert.Equal(t, 1, env.flights.flightCalls)

	require.Len(t, env.notifRepo.created, 1)
	assert.Equal(t, "Payment Successful", env.notifRepo.created[0].Title)
}

func TestHandleEventDuplicateSuccessIsIgnored(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1002", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))

	event := &gateway.Event{
		OrderID:          "ORD-1002",
		GatewayPaymentID: "PAY-42",
		RawStatus:        "PAY_SUCCESS",
		Status:           gateway.StatusSuccess,
	}
	require.NoError(t, env.reconcile.HandleEvent(ctx, event))
	require.NoError(t, env.reconcile.HandleEvent(ctx, event))

	// Only the first delivery hits the provider and the notifier.
	assert.Equal(t, 1, env.flights.flightCalls)
	assert.Len(t, env.notifRepo.created, 1)

	stored := env.bookings.get("ORD-1002")
	assert.Equal(t, entity.PaymentStatusCompleted, stored.PaymentDetails.PaymentStatus)
}

func TestHandleEventNeverDowngradesTerminalStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1003", "Gate Pay", entity.BookingTypeHotel)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:   "ORD-1003",
		RawStatus: "SUCCESS",
		Status:    gateway.StatusSuccess,
	}))

	// A late failure delivery must not undo the confirmed state.
	require.NoError(t, env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:   "ORD-1003",
		RawStatus: "expired",
		Status:    gateway.StatusFailed,
	}))

	stored := env.bookings.get("ORD-1003")
	assert.Equal(t, entity.BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusCompleted, stored.PaymentDetails.PaymentStatus)
}

func TestHandleEventCommitFailureIsContained(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.flights.flightErr = errors.New("amadeus rejected the order")

	booking := pendingBooking("ORD-1004", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))

	// The payment succeeded upstream, so the handler must still ack:
	// the error is contained as a terminal failed booking.
	err := env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:          "ORD-1004",
		GatewayPaymentID: "PAY-9",
		RawStatus:        "PAY_SUCCESS",
		Status:           gateway.StatusSuccess,
	})
	require.NoError(t, err)

	stored := env.bookings.get("ORD-1004")
	assert.Equal(t, entity.BookingStatusFailed, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusFailed, stored.PaymentDetails.PaymentStatus)

	require.Len(t, env.notifRepo.created, 1)
	assert.Equal(t, "FLIGHT - Booking Failed", env.notifRepo.created[0].Title)
}

func TestHandleEventWaitingAndProcessingTransitions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1005", "Now Payment", entity.BookingTypeCar)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:          "ORD-1005",
		GatewayPaymentID: "5077125051",
		RawStatus:        "waiting",
		Status:           gateway.StatusWaiting,
	}))
	stored := env.bookings.get("ORD-1005")
	assert.Equal(t, entity.PaymentStatusPending, stored.PaymentDetails.PaymentStatus)
	assert.Equal(t, "5077125051", stored.PaymentDetails.GatewayPaymentID)

	require.NoError(t, env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:          "ORD-1005",
		GatewayPaymentID: "5077125051",
		RawStatus:        "confirming",
		Status:           gateway.StatusProcessing,
	}))
	stored = env.bookings.get("ORD-1005")
	assert.Equal(t, entity.PaymentStatusProcessing, stored.PaymentDetails.PaymentStatus)
	assert.Equal(t, entity.BookingStatusPending, stored.BookingStatus)
}

func TestHandleEventFailureResolvesBooking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1006", "Gate Pay", entity.BookingTypeHotel)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.reconcile.HandleEvent(ctx, &gateway.Event{
		OrderID:   "ORD-1006",
		RawStatus: "PAY_CLOSED",
		Status:    gateway.StatusFailed,
	}))

	stored := env.bookings.get("ORD-1006")
	assert.Equal(t, entity.BookingStatusFailed, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusFailed, stored.PaymentDetails.PaymentStatus)
	assert.Equal(t, 0, env.stays.stayCalls)
}

func TestHandleEventUnknownOrder(t *testing.T) {
	env := newTestEnv()

	err := env.reconcile.HandleEvent(context.Background(), &gateway.Event{
		OrderID:   "ORD-MISSING",
		RawStatus: "PAY_SUCCESS",
		Status:    gateway.StatusSuccess,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestHandleEventStoreErrorIsPropagated(t *testing.T) {
	env := newTestEnv()
	env.bookings.findErr = errors.New("connection reset")

	// The gateway must see the failure so it redelivers.
	err := env.reconcile.HandleEvent(context.Background(), &gateway.Event{
		OrderID:   "ORD-1007",
		RawStatus: "PAY_SUCCESS",
		Status:    gateway.StatusSuccess,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, utils.ErrNotFound)
}

func TestHandleEventRetryAfterStoreFailureIsApplied(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	srv := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	env.withCache(cache)

	booking := pendingBooking("ORD-1010", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))
	env.bookings.updateErrOnce = errors.New("connection reset")

	event := &gateway.Event{
		OrderID:          "ORD-1010",
		GatewayPaymentID: "PAY-18",
		RawStatus:        "PAY_SUCCESS",
		Status:           gateway.StatusSuccess,
	}

	// First delivery hits a transient store failure after the provider
	// commit; the gateway has to see an error so it redelivers.
	require.Error(t, env.reconcile.HandleEvent(ctx, event))
	assert.Equal(t, entity.PaymentStatusPending, env.bookings.get("ORD-1010").PaymentDetails.PaymentStatus)
	assert.False(t, srv.Exists("webhook:processed:ORD-1010:PAY_SUCCESS:PAY-18"))

	// The redelivery must go through, not be swallowed by a stale marker.
	require.NoError(t, env.reconcile.HandleEvent(ctx, event))

	stored := env.bookings.get("ORD-1010")
	assert.Equal(t, entity.BookingStatusConfirmed, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusCompleted, stored.PaymentDetails.PaymentStatus)
	assert.True(t, srv.Exists("webhook:processed:ORD-1010:PAY_SUCCESS:PAY-18"))
}

func TestHandleEventMarksProcessedOnlyAfterTransition(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	srv := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	env.withCache(cache)

	booking := pendingBooking("ORD-1011", "Now Payment", entity.BookingTypeCar)
	require.NoError(t, env.bookings.Create(ctx, booking))

	event := &gateway.Event{
		OrderID:          "ORD-1011",
		GatewayPaymentID: "5077125051",
		RawStatus:        "waiting",
		Status:           gateway.StatusWaiting,
	}
	require.NoError(t, env.reconcile.HandleEvent(ctx, event))
	assert.True(t, srv.Exists("webhook:processed:ORD-1011:waiting:5077125051"))

	// The replayed delivery short-circuits on the marker without
	// touching the record again.
	before := env.bookings.get("ORD-1011").Version
	require.NoError(t, env.reconcile.HandleEvent(ctx, event))
	assert.Equal(t, before, env.bookings.get("ORD-1011").Version)
}

func TestCancelExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-1008", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.reconcile.CancelExpired(ctx, booking))

	stored := env.bookings.get("ORD-1008")
	assert.Equal(t, entity.BookingStatusCancelled, stored.BookingStatus)
	assert.Equal(t, entity.PaymentStatusFailed, stored.PaymentDetails.PaymentStatus)

	// Cancelling again is a no-op on the already terminal record.
	require.NoError(t, env.reconcile.CancelExpired(ctx, booking))
	assert.Equal(t, entity.BookingStatusCancelled, env.bookings.get("ORD-1008").BookingStatus)
}
