package usecase

import (
	"context"
	"sync"
	"time"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/gateway"
	"nesterlify-api/internal/provider"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory repository fakes mirroring the SQL guard semantics.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*entity.Booking
	findErr  error

	// consumed by the next UpdateStatusIfNotTerminal call only, to
	// simulate a transient store failure
	updateErrOnce error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*entity.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *booking
	r.bookings[booking.PaymentDetails.TransactionID] = &copied
	return nil
}

func (r *fakeBookingRepo) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	booking, ok := r.bookings[transactionID]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := r.FindByUserID(ctx, userID, 0, 0)
	return len(list), nil
}

func (r *fakeBookingRepo) UpdateStatusIfNotTerminal(ctx context.Context, transactionID string, bookingStatus entity.BookingStatus, paymentStatus entity.PaymentStatus, gatewayPaymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErrOnce != nil {
		err := r.updateErrOnce
		r.updateErrOnce = nil
		return false, err
	}

	booking, ok := r.bookings[transactionID]
	if !ok {
		return false, nil
	}
	if booking.PaymentDetails.PaymentStatus.Terminal() || booking.BookingStatus.Terminal() {
		return false, nil
	}

	booking.BookingStatus = bookingStatus
	booking.PaymentDetails.PaymentStatus = paymentStatus
	if gatewayPaymentID != "" {
		booking.PaymentDetails.GatewayPaymentID = gatewayPaymentID
	}
	booking.Version++
	booking.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeBookingRepo) SaveTypePayload(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.PaymentDetails.TransactionID]
	if !ok {
		return nil
	}
	stored.Flights = booking.Flights
	stored.Hotel = booking.Hotel
	stored.Car = booking.Car
	stored.Vacation = booking.Vacation
	stored.Version++
	return nil
}

func (r *fakeBookingRepo) FindPendingByMethodCreatedAfter(ctx context.Context, paymentMethod string, cutoff time.Time) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, booking := range r.bookings {
		if booking.PaymentDetails.PaymentStatus == entity.PaymentStatusPending &&
			booking.PaymentDetails.PaymentMethod == paymentMethod &&
			!booking.CreatedAt.Before(cutoff) {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, booking := range r.bookings {
		unsettled := booking.PaymentDetails.PaymentStatus == entity.PaymentStatusPending ||
			booking.PaymentDetails.PaymentStatus == entity.PaymentStatusProcessing
		if unsettled && booking.CreatedAt.Before(cutoff) {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) get(transactionID string) *entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[transactionID]
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []*entity.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, notification)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, notification := range r.created {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := r.FindByUserID(ctx, userID, 0, 0)
	return len(list), nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.created {
		if notification.ID == notificationID && notification.UserID == userID {
			notification.Read = true
			return true, nil
		}
	}
	return false, nil
}

// Provider fakes.

type fakeFlightProvider struct {
	flightErr     error
	transferErr   error
	flightCalls   int
	transferCalls int
}

func (p *fakeFlightProvider) CreateFlightOrder(ctx context.Context, offers []entity.FlightOffer) (*provider.FlightOrderResult, error) {
	p.flightCalls++
	if p.flightErr != nil {
		return nil, p.flightErr
	}
	return &provider.FlightOrderResult{OrderID: "eJzTd9cPjPQ"}, nil
}

func (p *fakeFlightProvider) CreateTransferOrder(ctx context.Context, car *entity.CarTransfer) (*provider.TransferOrderResult, error) {
	p.transferCalls++
	if p.transferErr != nil {
		return nil, p.transferErr
	}
	return &provider.TransferOrderResult{ConfirmNbr: "2904892", TransferType: "PRIVATE"}, nil
}

type fakeStayProvider struct {
	stayErr   error
	stayCalls int
}

func (p *fakeStayProvider) CreateStayBooking(ctx context.Context, hotel *entity.HotelStay) (*provider.StayBookingResult, error) {
	p.stayCalls++
	if p.stayErr != nil {
		return nil, p.stayErr
	}
	return &provider.StayBookingResult{
		BookingID:    "bok_0000AS7LP7",
		Name:         "Grand Plaza",
		Status:       "confirmed",
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}, nil
}

// Gateway poller fake.

type fakeGatePay struct {
	mu         sync.Mutex
	statuses   map[string]string
	queryErr   error
	closed     []string
	queryCalls int
}

func newFakeGatePay() *fakeGatePay {
	return &fakeGatePay{statuses: make(map[string]string)}
}

func (g *fakeGatePay) QueryOrder(ctx context.Context, orderID string) (*gateway.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryCalls++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	raw, ok := g.statuses[orderID]
	if !ok {
		raw = "waiting"
	}
	status, err := gateway.NormalizeStatus(raw)
	if err != nil {
		return nil, err
	}
	return &gateway.Event{OrderID: orderID, RawStatus: raw, Status: status}, nil
}

func (g *fakeGatePay) CloseOrder(ctx context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = append(g.closed, orderID)
	return nil
}

// Harness wiring the real services against the fakes.

type testEnv struct {
	repo      *repository.Repository
	bookings  *fakeBookingRepo
	notifRepo *fakeNotificationRepo
	flights   *fakeFlightProvider
	stays     *fakeStayProvider
	booking   BookingService
	reconcile ReconcileService
	notifier  NotificationService
}

func newTestEnv() *testEnv {
	bookings := newFakeBookingRepo()
	notifRepo := &fakeNotificationRepo{}
	repo := &repository.Repository{Booking: bookings, Notification: notifRepo}

	flights := &fakeFlightProvider{}
	stays := &fakeStayProvider{}

	log := zap.NewNop()
	booking := NewBookingService(repo, flights, stays, log)
	notifier := NewNotificationService(repo, nil, log)
	reconcile := NewReconcileService(repo, booking, notifier, nil, nil, log)

	return &testEnv{
		repo:      repo,
		bookings:  bookings,
		notifRepo: notifRepo,
		flights:   flights,
		stays:     stays,
		booking:   booking,
		reconcile: reconcile,
		notifier:  notifier,
	}
}

// withCache rebuilds the reconcile service with a dedupe cache attached.
func (env *testEnv) withCache(cache *redis.Client) {
	env.reconcile = NewReconcileService(env.repo, env.booking, env.notifier, nil, cache, zap.NewNop())
}

func pendingBooking(orderID, paymentMethod string, bookingType entity.BookingType) *entity.Booking {
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		UserID:      uuid.New(),
		BookingType: bookingType,
		PaymentDetails: entity.PaymentDetails{
			TransactionID: orderID,
			PaymentStatus: entity.PaymentStatusPending,
			PaymentMethod: paymentMethod,
			Amount:        412.50,
			Currency:      "USD",
		},
		BookingStatus: entity.BookingStatusPending,
		Version:       1,
	}

	switch bookingType {
	case entity.BookingTypeFlight:
		booking.Flights = []entity.FlightOffer{{
			Source:      "GDS",
			Itineraries: []entity.Itinerary{{Segments: []entity.FlightSegment{{CarrierCode: "KQ", Number: "512"}}}},
			Travelers: []entity.Traveler{{
				ID:     "1",
				Name:   entity.TravelerName{FirstName: "Amina", LastName: "Odhiambo"},
				Gender: "female",
				Contact: entity.TravelerContact{
					Email: "amina@example.com",
				},
			}},
		}}
	case entity.BookingTypeHotel:
		booking.Hotel = &entity.HotelStay{
			QuoteID:     "quo_0000AS6",
			Guests:      []entity.Guest{{GivenName: "Amina", FamilyName: "Odhiambo"}},
			Email:       "amina@example.com",
			PhoneNumber: "+254700000001",
		}
	case entity.BookingTypeCar:
		booking.Car = &entity.CarTransfer{
			CarOfferID: "offer-123",
			Passengers: []entity.Passenger{{
				ID:        "1",
				FirstName: "Amina",
				LastName:  "Odhiambo",
				Title:     "MS",
				Contacts:  entity.PassengerContacts{PhoneNumber: "+254700000001", Email: "amina@example.com"},
			}},
		}
	}

	return booking
}
