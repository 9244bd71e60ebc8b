package request

import (
	"encoding/json"

	"nesterlify-api/internal/data/entity"
)

// CreateOrderRequest is shared by every payment gateway checkout endpoint.
// The booking-type specific fields are validated in the usecase layer
// because required-ness depends on BookingType.
type CreateOrderRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required"`
	BookingType string  `json:"bookingType" validate:"required,oneof=flight hotel car vacation"`

	// Flight
	FlightOffers []entity.FlightOffer `json:"flightOffers,omitempty"`
	Travelers    []entity.Traveler    `json:"travelers,omitempty"`

	// Car transfer
	CarOfferID            string             `json:"carOfferID,omitempty"`
	Passengers            []entity.Passenger `json:"passengers,omitempty"`
	Note                  string             `json:"note,omitempty"`
	StartConnectedSegment json.RawMessage    `json:"startConnectedSegment,omitempty"`
	EndConnectedSegment   json.RawMessage    `json:"endConnectedSegment,omitempty"`

	// Hotel stay
	QuoteID             string         `json:"quote_id,omitempty"`
	Guests              []entity.Guest `json:"guests,omitempty"`
	Email               string         `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber         string         `json:"phone_number,omitempty"`
	StaySpecialRequests string         `json:"stay_special_requests,omitempty"`

	// Vacation package (participants reuse the Passengers field)
	ActivityID string `json:"activityID,omitempty"`
	Title      string `json:"title,omitempty"`

	// PayCurrency is required by the NOWPayments checkout only.
	PayCurrency string `json:"pay_currency,omitempty"`
}

type PaymentStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notification_id" validate:"required,uuid4"`
}
