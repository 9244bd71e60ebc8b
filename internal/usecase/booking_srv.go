package usecase

import (
	"context"
	"fmt"
	"time"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/dto/request"
	"nesterlify-api/internal/dto/response"
	"nesterlify-api/internal/provider"
	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlightProvider commits flight and transfer orders upstream.
type FlightProvider interface {
	CreateFlightOrder(ctx context.Context, offers []entity.FlightOffer) (*provider.FlightOrderResult, error)
	CreateTransferOrder(ctx context.Context, car *entity.CarTransfer) (*provider.TransferOrderResult, error)
}

// StayProvider commits accommodation bookings upstream.
type StayProvider interface {
	CreateStayBooking(ctx context.Context, hotel *entity.HotelStay) (*provider.StayBookingResult, error)
}

type BookingService interface {
	// PrepareBooking validates the checkout request and persists a
	// pending booking keyed by a fresh order id.
	PrepareBooking(ctx context.Context, userID uuid.UUID, paymentMethod string, req *request.CreateOrderRequest) (*entity.Booking, error)

	// Commit places the real reservation with the travel provider and
	// writes the confirmation data back onto the booking record.
	Commit(ctx context.Context, booking *entity.Booking) error

	GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*response.BookingListResponse, error)
	GetBookingByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	flights FlightProvider
	stays   StayProvider
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, flights FlightProvider, stays StayProvider, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		flights: flights,
		stays:   stays,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) PrepareBooking(ctx context.Context, userID uuid.UUID, paymentMethod string, req *request.CreateOrderRequest) (*entity.Booking, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Checkout validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	if err := validateBookingPayload(req); err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:      userID,
		BookingType: entity.BookingType(req.BookingType),
		PaymentDetails: entity.PaymentDetails{
			TransactionID: utils.GenerateOrderID(),
			PaymentStatus: entity.PaymentStatusPending,
			PaymentMethod: paymentMethod,
			Amount:        req.Amount,
			Currency:      req.Currency,
		},
		BookingStatus: entity.BookingStatusPending,
		Version:       1,
	}

	switch booking.BookingType {
	case entity.BookingTypeFlight:
		booking.Flights = buildFlights(req)
	case entity.BookingTypeHotel:
		booking.Hotel = &entity.HotelStay{
			QuoteID:             req.QuoteID,
			Guests:              req.Guests,
			Email:               req.Email,
			PhoneNumber:         req.PhoneNumber,
			StaySpecialRequests: req.StaySpecialRequests,
		}
	case entity.BookingTypeCar:
		booking.Car = buildCarTransfer(req)
	case entity.BookingTypeVacation:
		booking.Vacation = &entity.VacationPackage{
			ActivityID:   req.ActivityID,
			Title:        req.Title,
			Participants: req.Passengers,
			Note:         req.Note,
		}
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.log.Info("Pending booking created",
		zap.String("order_id", booking.PaymentDetails.TransactionID),
		zap.String("booking_type", req.BookingType),
		zap.String("payment_method", paymentMethod),
	)

	return booking, nil
}

// validateBookingPayload enforces the type-specific required fields on
// every gateway path.
func validateBookingPayload(req *request.CreateOrderRequest) error {
	switch entity.BookingType(req.BookingType) {
	case entity.BookingTypeFlight:
		if len(req.FlightOffers) == 0 || len(req.Travelers) == 0 {
			return fmt.Errorf("%w: flight missing required fields", utils.ErrValidation)
		}
		for i, offer := range req.FlightOffers {
			if len(offer.Itineraries) == 0 {
				return fmt.Errorf("%w: invalid flight itinerary for flight %d", utils.ErrValidation, i+1)
			}
		}
	case entity.BookingTypeHotel:
		if req.QuoteID == "" || len(req.Guests) == 0 || req.Email == "" || req.PhoneNumber == "" {
			return fmt.Errorf("%w: hotel booking missing required fields", utils.ErrValidation)
		}
		for _, guest := range req.Guests {
			if guest.GivenName == "" || guest.FamilyName == "" {
				return fmt.Errorf("%w: guest details are required", utils.ErrValidation)
			}
		}
	case entity.BookingTypeVacation:
		if req.ActivityID == "" {
			return fmt.Errorf("%w: vacation booking missing activity", utils.ErrValidation)
		}
	case entity.BookingTypeCar:
		if req.CarOfferID == "" || len(req.Passengers) == 0 {
			return fmt.Errorf("%w: car transfer missing required fields", utils.ErrValidation)
		}
		for _, passenger := range req.Passengers {
			if passenger.FirstName == "" || passenger.LastName == "" || passenger.Title == "" ||
				passenger.Contacts.PhoneNumber == "" || passenger.Contacts.Email == "" {
				return fmt.Errorf("%w: passenger details are required", utils.ErrValidation)
			}
		}
	}

	return nil
}

func buildFlights(req *request.CreateOrderRequest) []entity.FlightOffer {
	flights := make([]entity.FlightOffer, len(req.FlightOffers))
	for i, offer := range req.FlightOffers {
		flight := offer
		// Travelers ride along inside every stored offer so the provider
		// commit needs no second lookup.
		flight.Travelers = req.Travelers
		flights[i] = flight
	}
	return flights
}

func buildCarTransfer(req *request.CreateOrderRequest) *entity.CarTransfer {
	note := req.Note
	if note == "" {
		note = "No special requests"
	}

	passengers := make([]entity.Passenger, len(req.Passengers))
	for i, passenger := range req.Passengers {
		p := passenger
		p.ID = fmt.Sprintf("%d", i+1)
		passengers[i] = p
	}

	return &entity.CarTransfer{
		CarOfferID:            req.CarOfferID,
		Passengers:            passengers,
		Note:                  note,
		StartConnectedSegment: req.StartConnectedSegment,
		EndConnectedSegment:   req.EndConnectedSegment,
	}
}

func (s *bookingService) Commit(ctx context.Context, booking *entity.Booking) error {
	start := time.Now()
	defer func() {
		utils.CommitLatency.Observe(time.Since(start).Seconds())
	}()

	switch booking.BookingType {
	case entity.BookingTypeFlight:
		return s.commitFlight(ctx, booking)
	case entity.BookingTypeHotel:
		return s.commitHotel(ctx, booking)
	case entity.BookingTypeCar:
		return s.commitCar(ctx, booking)
	case entity.BookingTypeVacation:
		// No provider integration for packages yet; payment alone
		// confirms the booking.
		s.log.Info("Processing vacation booking",
			zap.String("order_id", booking.PaymentDetails.TransactionID))
		return nil
	default:
		return fmt.Errorf("%w: unknown booking type %q", utils.ErrValidation, booking.BookingType)
	}
}

func (s *bookingService) commitFlight(ctx context.Context, booking *entity.Booking) error {
	result, err := s.flights.CreateFlightOrder(ctx, booking.Flights)
	if err != nil {
		return fmt.Errorf("flight booking failed: %w", err)
	}

	for i := range booking.Flights {
		booking.Flights[i].FlightOrderID = result.OrderID
	}

	if err := s.repo.Booking.SaveTypePayload(ctx, booking); err != nil {
		return err
	}

	s.log.Info("Flight order confirmed",
		zap.String("order_id", booking.PaymentDetails.TransactionID),
		zap.String("flight_order_id", result.OrderID),
	)

	return nil
}

func (s *bookingService) commitCar(ctx context.Context, booking *entity.Booking) error {
	result, err := s.flights.CreateTransferOrder(ctx, booking.Car)
	if err != nil {
		return fmt.Errorf("car transfer booking failed: %w", err)
	}

	booking.Car.ConfirmNbr = result.ConfirmNbr
	booking.Car.TransferType = result.TransferType
	booking.Car.Distance = result.Distance
	booking.Car.Start = result.Start
	booking.Car.End = result.End
	booking.Car.Vehicle = result.Vehicle
	booking.Car.ServiceProvider = result.ServiceProvider
	booking.Car.Quotation = result.Quotation

	if err := s.repo.Booking.SaveTypePayload(ctx, booking); err != nil {
		return err
	}

	s.log.Info("Car transfer confirmed",
		zap.String("order_id", booking.PaymentDetails.TransactionID),
		zap.String("confirm_nbr", result.ConfirmNbr),
	)

	return nil
}

func (s *bookingService) commitHotel(ctx context.Context, booking *entity.Booking) error {
	result, err := s.stays.CreateStayBooking(ctx, booking.Hotel)
	if err != nil {
		return fmt.Errorf("hotel booking failed: %w", err)
	}

	booking.Hotel.BookingID = result.BookingID
	booking.Hotel.Name = result.Name
	booking.Hotel.CheckInDate = result.CheckInDate
	booking.Hotel.CheckOutDate = result.CheckOutDate
	booking.Hotel.Rooms = result.Rooms
	booking.Hotel.CheckInInformation = &result.CheckInInformation
	booking.Hotel.Address = &result.Address

	if err := s.repo.Booking.SaveTypePayload(ctx, booking); err != nil {
		return err
	}

	s.log.Info("Hotel stay confirmed",
		zap.String("order_id", booking.PaymentDetails.TransactionID),
		zap.String("stay_booking_id", result.BookingID),
	)

	return nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*response.BookingListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		items = append(items, response.NewBookingResponse(booking))
	}

	totalPages := (total + limit - 1) / limit

	return &response.BookingListResponse{
		Bookings: items,
		Pagination: response.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *bookingService) GetBookingByOrderID(ctx context.Context, userID uuid.UUID, orderID string) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByTransactionID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.UserID != userID {
		return nil, fmt.Errorf("%w: booking %s", utils.ErrNotFound, orderID)
	}

	resp := response.NewBookingResponse(booking)
	return &resp, nil
}
