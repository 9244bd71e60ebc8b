package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

type BookingType string

const (
	BookingTypeFlight   BookingType = "flight"
	BookingTypeHotel    BookingType = "hotel"
	BookingTypeCar      BookingType = "car"
	BookingTypeVacation BookingType = "vacation"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusFailed || s == BookingStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// PaymentDetails embeds the payment sub-state of a booking.
// TransactionID is the merchant order id generated before the gateway call;
// it is the sole correlation key for webhook/poll events.
type PaymentDetails struct {
	TransactionID    string        `db:"transaction_id"`
	PaymentStatus    PaymentStatus `db:"payment_status"`
	PaymentMethod    string        `db:"payment_method"`
	Amount           float64       `db:"amount"`
	Currency         string        `db:"currency"`
	GatewayPaymentID string        `db:"gateway_payment_id"`
}

// Booking is the root aggregate: one record per purchase attempt.
// Exactly one of Flights/Hotel/Car/Vacation is populated, selected by
// BookingType.
type Booking struct {
	Base
	UserID         uuid.UUID        `db:"user_id"`
	BookingType    BookingType      `db:"booking_type"`
	Flights        []FlightOffer    `db:"flights"`
	Hotel          *HotelStay       `db:"hotel"`
	Car            *CarTransfer     `db:"car"`
	Vacation       *VacationPackage `db:"vacation"`
	PaymentDetails PaymentDetails
	BookingStatus  BookingStatus `db:"booking_status"`

	// Version is the optimistic-concurrency token, bumped on every
	// status write.
	Version int64 `db:"version"`
}

// ==================== FLIGHT ====================

type FlightOffer struct {
	FlightOrderID            string            `json:"flightOrderId"`
	Source                   string            `json:"source"`
	InstantTicketingRequired bool              `json:"instantTicketingRequired"`
	NonHomogeneous           bool              `json:"nonHomogeneous"`
	PaymentCardRequired      bool              `json:"paymentCardRequired"`
	LastTicketingDate        string            `json:"lastTicketingDate"`
	Itineraries              []Itinerary       `json:"itineraries"`
	Price                    FlightPrice       `json:"price"`
	PricingOptions           PricingOptions    `json:"pricingOptions"`
	ValidatingAirlineCodes   []string          `json:"validatingAirlineCodes"`
	TravelerPricings         []TravelerPricing `json:"travelerPricings"`
	Travelers                []Traveler        `json:"travelers"`
}

type Itinerary struct {
	Segments []FlightSegment `json:"segments"`
}

type FlightSegment struct {
	Departure            FlightEndpoint `json:"departure"`
	Arrival              FlightEndpoint `json:"arrival"`
	CarrierCode          string         `json:"carrierCode"`
	Number               string         `json:"number"`
	Aircraft             string         `json:"aircraft"`
	OperatingCarrierCode string         `json:"operatingCarrierCode"`
	Duration             string         `json:"duration"`
	SegmentID            string         `json:"segmentId"`
	NumberOfStops        int            `json:"numberOfStops"`
	CO2Emissions         []CO2Emission  `json:"co2Emissions,omitempty"`
}

type FlightEndpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type CO2Emission struct {
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weightUnit"`
	Cabin      string  `json:"cabin"`
}

type FlightPrice struct {
	Currency        string `json:"currency"`
	Total           string `json:"total"`
	Base            string `json:"base"`
	Fees            []Fee  `json:"fees,omitempty"`
	GrandTotal      string `json:"grandTotal"`
	BillingCurrency string `json:"billingCurrency,omitempty"`
}

type Fee struct {
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

type PricingOptions struct {
	FareType                []string `json:"fareType"`
	IncludedCheckedBagsOnly bool     `json:"includedCheckedBagsOnly"`
}

type TravelerPricing struct {
	TravelerID           string              `json:"travelerId"`
	FareOption           string              `json:"fareOption"`
	TravelerType         string              `json:"travelerType"`
	Price                TravelerPrice       `json:"price"`
	FareDetailsBySegment []FareDetailSegment `json:"fareDetailsBySegment"`
}

type TravelerPrice struct {
	Currency        string `json:"currency"`
	Total           string `json:"total"`
	Base            string `json:"base"`
	Taxes           []Tax  `json:"taxes,omitempty"`
	RefundableTaxes string `json:"refundableTaxes,omitempty"`
}

type Tax struct {
	Amount string `json:"amount"`
	Code   string `json:"code"`
}

type FareDetailSegment struct {
	SegmentID           string      `json:"segmentId"`
	Cabin               string      `json:"cabin"`
	FareBasis           string      `json:"fareBasis"`
	Class               string      `json:"class"`
	IncludedCheckedBags CheckedBags `json:"includedCheckedBags"`
}

type CheckedBags struct {
	Quantity int `json:"quantity"`
}

type Traveler struct {
	ID          string             `json:"id"`
	DateOfBirth string             `json:"dateOfBirth"`
	Name        TravelerName       `json:"name"`
	Gender      string             `json:"gender"`
	Contact     TravelerContact    `json:"contact"`
	Documents   []TravelerDocument `json:"documents,omitempty"`
}

type TravelerName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type TravelerContact struct {
	Email  string  `json:"email"`
	Phones []Phone `json:"phones,omitempty"`
}

type Phone struct {
	DeviceType         string `json:"deviceType"`
	CountryCallingCode string `json:"countryCallingCode"`
	Number             string `json:"number"`
}

type TravelerDocument struct {
	DocumentType     string `json:"documentType"`
	Number           string `json:"number"`
	ExpiryDate       string `json:"expiryDate"`
	Nationality      string `json:"nationality"`
	IssuanceLocation string `json:"issuanceLocation"`
	IssuanceDate     string `json:"issuanceDate"`
	IssuanceCountry  string `json:"issuanceCountry"`
	ValidityCountry  string `json:"validityCountry"`
	Holder           bool   `json:"holder"`
}

// ==================== CAR TRANSFER ====================

type CarTransfer struct {
	CarOfferID string      `json:"carOfferID"`
	Passengers []Passenger `json:"passengers"`
	Note       string      `json:"note,omitempty"`

	// Pass-through provider segments, not interpreted by us
	StartConnectedSegment json.RawMessage `json:"startConnectedSegment,omitempty"`
	EndConnectedSegment   json.RawMessage `json:"endConnectedSegment,omitempty"`

	// Confirmation data written back after the transfer order succeeds
	ConfirmNbr      string          `json:"confirmNbr,omitempty"`
	TransferType    string          `json:"transferType,omitempty"`
	Distance        json.RawMessage `json:"distance,omitempty"`
	Start           json.RawMessage `json:"start,omitempty"`
	End             json.RawMessage `json:"end,omitempty"`
	Vehicle         json.RawMessage `json:"vehicle,omitempty"`
	ServiceProvider json.RawMessage `json:"serviceProvider,omitempty"`
	Quotation       json.RawMessage `json:"quotation,omitempty"`
}

type Passenger struct {
	ID        string            `json:"id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Title     string            `json:"title"`
	Contacts  PassengerContacts `json:"contacts"`
}

type PassengerContacts struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// ==================== HOTEL ====================

type HotelStay struct {
	QuoteID             string  `json:"quote_id"`
	Guests              []Guest `json:"guests"`
	Email               string  `json:"email"`
	PhoneNumber         string  `json:"phone_number"`
	StaySpecialRequests string  `json:"stay_special_requests,omitempty"`

	// Confirmation data from the stays provider
	BookingID          string          `json:"booking_id,omitempty"`
	Name               string          `json:"name,omitempty"`
	CheckInDate        string          `json:"check_in_date,omitempty"`
	CheckOutDate       string          `json:"check_out_date,omitempty"`
	Rooms              json.RawMessage `json:"rooms,omitempty"`
	CheckInInformation *CheckInInfo    `json:"check_in_information,omitempty"`
	Address            *StayAddress    `json:"address,omitempty"`
}

type Guest struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type CheckInInfo struct {
	CheckOutBeforeTime string `json:"check_out_before_time"`
	CheckInBeforeTime  string `json:"check_in_before_time"`
	CheckInAfterTime   string `json:"check_in_after_time"`
}

type StayAddress struct {
	LineOne     string `json:"line_one"`
	CityName    string `json:"city_name"`
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
}

// ==================== VACATION ====================

// VacationPackage is persisted but its provider commit is not implemented
// upstream; the reconciliation path treats it as a logged no-op.
type VacationPackage struct {
	ActivityID   string      `json:"activityID"`
	Title        string      `json:"title,omitempty"`
	Participants []Passenger `json:"participants,omitempty"`
	Note         string      `json:"note,omitempty"`
}
