package usecase

import (
	"context"
	"strings"
	"testing"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/dto/request"
	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flightRequest() *request.CreateOrderRequest {
	return &request.CreateOrderRequest{
		Amount:      412.50,
		Currency:    "USD",
		BookingType: "flight",
		FlightOffers: []entity.FlightOffer{{
			Source: "GDS",
			Itineraries: []entity.Itinerary{{
				Segments: []entity.FlightSegment{{CarrierCode: "KQ", Number: "512"}},
			}},
		}},
		Travelers: []entity.Traveler{{
			ID:     "1",
			Name:   entity.TravelerName{FirstName: "Amina", LastName: "Odhiambo"},
			Gender: "female",
			Contact: entity.TravelerContact{
				Email: "amina@example.com",
			},
		}},
	}
}

func hotelRequest() *request.CreateOrderRequest {
	return &request.CreateOrderRequest{
		Amount:      180,
		Currency:    "USD",
		BookingType: "hotel",
		QuoteID:     "quo_0000AS6",
		Guests:      []entity.Guest{{GivenName: "Amina", FamilyName: "Odhiambo"}},
		Email:       "amina@example.com",
		PhoneNumber: "+254700000001",
	}
}

func carRequest() *request.CreateOrderRequest {
	return &request.CreateOrderRequest{
		Amount:      65,
		Currency:    "USD",
		BookingType: "car",
		CarOfferID:  "offer-123",
		Passengers: []entity.Passenger{{
			FirstName: "Amina",
			LastName:  "Odhiambo",
			Title:     "MS",
			Contacts:  entity.PassengerContacts{PhoneNumber: "+254700000001", Email: "amina@example.com"},
		}},
	}
}

func vacationRequest() *request.CreateOrderRequest {
	return &request.CreateOrderRequest{
		Amount:      220,
		Currency:    "USD",
		BookingType: "vacation",
		ActivityID:  "act-889",
		Title:       "Maasai Mara Safari",
		Passengers: []entity.Passenger{{
			FirstName: "Amina",
			LastName:  "Odhiambo",
			Title:     "MS",
			Contacts:  entity.PassengerContacts{PhoneNumber: "+254700000001", Email: "amina@example.com"},
		}},
	}
}

func TestPrepareBookingFlight(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	booking, err := env.booking.PrepareBooking(context.Background(), userID, "Binance Pay", flightRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(booking.PaymentDetails.TransactionID, "ORD-"))
	assert.Equal(t, entity.BookingStatusPending, booking.BookingStatus)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentDetails.PaymentStatus)
	assert.Equal(t, "Binance Pay", booking.PaymentDetails.PaymentMethod)
	assert.Equal(t, int64(1), booking.Version)

	// Travelers ride inside each stored offer.
	require.Len(t, booking.Flights, 1)
	require.Len(t, booking.Flights[0].Travelers, 1)
	assert.Equal(t, "Amina", booking.Flights[0].Travelers[0].Name.FirstName)

	stored := env.bookings.get(booking.PaymentDetails.TransactionID)
	require.NotNil(t, stored)
	assert.Equal(t, userID, stored.UserID)
}

func TestPrepareBookingCarDefaults(t *testing.T) {
	env := newTestEnv()

	booking, err := env.booking.PrepareBooking(context.Background(), uuid.New(), "Gate Pay", carRequest())
	require.NoError(t, err)

	require.NotNil(t, booking.Car)
	assert.Equal(t, "No special requests", booking.Car.Note)
	require.Len(t, booking.Car.Passengers, 1)
	assert.Equal(t, "1", booking.Car.Passengers[0].ID)
}

func TestPrepareBookingVacation(t *testing.T) {
	env := newTestEnv()

	booking, err := env.booking.PrepareBooking(context.Background(), uuid.New(), "Now Payment", vacationRequest())
	require.NoError(t, err)

	require.NotNil(t, booking.Vacation)
	assert.Equal(t, "act-889", booking.Vacation.ActivityID)
	assert.Equal(t, "Maasai Mara Safari", booking.Vacation.Title)
	require.Len(t, booking.Vacation.Participants, 1)
	assert.Equal(t, "Amina", booking.Vacation.Participants[0].FirstName)
}

func TestPrepareBookingValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()

	cases := []struct {
		name string
		req  *request.CreateOrderRequest
	}{
		{"zero amount", &request.CreateOrderRequest{Currency: "USD", BookingType: "flight"}},
		{"bad booking type", &request.CreateOrderRequest{Amount: 10, Currency: "USD", BookingType: "cruise"}},
		{"flight without offers", &request.CreateOrderRequest{Amount: 10, Currency: "USD", BookingType: "flight"}},
		{"flight without itineraries", func() *request.CreateOrderRequest {
			req := flightRequest()
			req.FlightOffers[0].Itineraries = nil
			return req
		}()},
		{"hotel without quote", func() *request.CreateOrderRequest {
			req := hotelRequest()
			req.QuoteID = ""
			return req
		}()},
		{"hotel guest missing name", func() *request.CreateOrderRequest {
			req := hotelRequest()
			req.Guests[0].FamilyName = ""
			return req
		}()},
		{"car passenger missing contact", func() *request.CreateOrderRequest {
			req := carRequest()
			req.Passengers[0].Contacts.Email = ""
			return req
		}()},
		{"vacation without activity", func() *request.CreateOrderRequest {
			req := vacationRequest()
			req.ActivityID = ""
			return req
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.booking.PrepareBooking(ctx, userID, "Binance Pay", tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}
}

func TestCommitHotelWritesConfirmation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-2001", "Binance Pay", entity.BookingTypeHotel)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.booking.Commit(ctx, booking))
	assert.Equal(t, 1, env.stays.stayCalls)

	assert.Equal(t, "bok_0000AS7LP7", booking.Hotel.BookingID)
	assert.Equal(t, "Grand Plaza", booking.Hotel.Name)

	stored := env.bookings.get("ORD-2001")
	require.NotNil(t, stored.Hotel)
	assert.Equal(t, "bok_0000AS7LP7", stored.Hotel.BookingID)
}

func TestCommitCarWritesConfirmation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-2002", "Gate Pay", entity.BookingTypeCar)
	require.NoError(t, env.bookings.Create(ctx, booking))

	require.NoError(t, env.booking.Commit(ctx, booking))
	assert.Equal(t, 1, env.flights.transferCalls)
	assert.Equal(t, "2904892", booking.Car.ConfirmNbr)
	assert.Equal(t, "PRIVATE", booking.Car.TransferType)
}

func TestCommitVacationIsNoOp(t *testing.T) {
	env := newTestEnv()

	booking := pendingBooking("ORD-2003", "Now Payment", entity.BookingTypeVacation)
	require.NoError(t, env.booking.Commit(context.Background(), booking))
	assert.Equal(t, 0, env.flights.flightCalls)
	assert.Equal(t, 0, env.stays.stayCalls)
}

func TestGetBookingByOrderIDChecksOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	booking := pendingBooking("ORD-2004", "Binance Pay", entity.BookingTypeFlight)
	require.NoError(t, env.bookings.Create(ctx, booking))

	found, err := env.booking.GetBookingByOrderID(ctx, booking.UserID, "ORD-2004")
	require.NoError(t, err)
	assert.Equal(t, "ORD-2004", found.Payment.TransactionID)

	_, err = env.booking.GetBookingByOrderID(ctx, uuid.New(), "ORD-2004")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
