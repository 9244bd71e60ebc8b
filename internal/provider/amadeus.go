package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

const (
	amadeusTokenPath        = "/v1/security/oauth2/token"
	amadeusFlightOrdersPath = "/v1/booking/flight-orders"
	amadeusTransferPath     = "/v1/ordering/transfer-orders"
)

// AmadeusClient memanggil Amadeus Self-Service API dengan OAuth2
// client-credentials token yang di-cache sampai mendekati expiry.
type AmadeusClient struct {
	config utils.AmadeusConfig
	client *http.Client
	log    *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewAmadeusClient(config utils.AmadeusConfig, log *zap.Logger) *AmadeusClient {
	return &AmadeusClient{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "amadeus")),
	}
}

func (c *AmadeusClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+amadeusTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build amadeus token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: amadeus token request: %v", utils.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: amadeus token returned HTTP %d", utils.ErrProvider, resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode amadeus token response: %w", err)
	}

	c.token = token.AccessToken
	// Refresh slightly early so in-flight calls never see an expired token.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)

	return c.token, nil
}

// ==================== FLIGHT ORDERS ====================

type FlightOrderResult struct {
	OrderID string
}

// CreateFlightOrder submits the stored offers plus travelers to the
// flight-orders API. Traveler names and gender are uppercased as Amadeus
// rejects mixed-case values.
func (c *AmadeusClient) CreateFlightOrder(ctx context.Context, offers []entity.FlightOffer) (*FlightOrderResult, error) {
	if len(offers) == 0 {
		return nil, fmt.Errorf("%w: no flight offers stored", utils.ErrValidation)
	}

	flightOffers := make([]map[string]any, 0, len(offers))
	for i, offer := range offers {
		flightOffers = append(flightOffers, orderFlightOffer(offer, i+1))
	}

	travelers := make([]map[string]any, 0, len(offers[0].Travelers))
	for _, traveler := range offers[0].Travelers {
		travelers = append(travelers, orderTraveler(traveler))
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": flightOffers,
			"travelers":    travelers,
		},
	}

	raw, err := c.post(ctx, amadeusFlightOrdersPath, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			ID                string            `json:"id"`
			AssociatedRecords []json.RawMessage `json:"associatedRecords"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode flight order response: %w", err)
	}

	if len(result.Data.AssociatedRecords) == 0 {
		return nil, fmt.Errorf("%w: flight order has no associated records", utils.ErrProvider)
	}

	orderID := result.Data.ID
	if orderID == "" {
		orderID = "N/A"
	}

	return &FlightOrderResult{OrderID: orderID}, nil
}

func orderFlightOffer(offer entity.FlightOffer, id int) map[string]any {
	itineraries := make([]map[string]any, 0, len(offer.Itineraries))
	for _, itinerary := range offer.Itineraries {
		segments := make([]map[string]any, 0, len(itinerary.Segments))
		for _, segment := range itinerary.Segments {
			emissions := make([]map[string]any, 0, len(segment.CO2Emissions))
			for _, emission := range segment.CO2Emissions {
				emissions = append(emissions, map[string]any{
					"weight":     emission.Weight,
					"weightUnit": emission.WeightUnit,
					"cabin":      emission.Cabin,
				})
			}
			segments = append(segments, map[string]any{
				"departure":     map[string]any{"iataCode": segment.Departure.IATACode, "at": segment.Departure.At},
				"arrival":       map[string]any{"iataCode": segment.Arrival.IATACode, "at": segment.Arrival.At},
				"carrierCode":   segment.CarrierCode,
				"number":        segment.Number,
				"aircraft":      map[string]any{"code": segment.Aircraft},
				"duration":      segment.Duration,
				"id":            segment.SegmentID,
				"numberOfStops": segment.NumberOfStops,
				"co2Emissions":  emissions,
			})
		}
		itineraries = append(itineraries, map[string]any{"segments": segments})
	}

	fees := make([]map[string]any, 0, len(offer.Price.Fees))
	for _, fee := range offer.Price.Fees {
		fees = append(fees, map[string]any{"amount": fee.Amount, "type": fee.Type})
	}

	pricings := make([]map[string]any, 0, len(offer.TravelerPricings))
	for _, pricing := range offer.TravelerPricings {
		taxes := make([]map[string]any, 0, len(pricing.Price.Taxes))
		for _, tax := range pricing.Price.Taxes {
			taxes = append(taxes, map[string]any{"amount": tax.Amount, "code": tax.Code})
		}

		fareDetails := make([]map[string]any, 0, len(pricing.FareDetailsBySegment))
		for _, detail := range pricing.FareDetailsBySegment {
			fareDetails = append(fareDetails, map[string]any{
				"segmentId":           detail.SegmentID,
				"cabin":               detail.Cabin,
				"fareBasis":           detail.FareBasis,
				"class":               detail.Class,
				"includedCheckedBags": map[string]any{"quantity": detail.IncludedCheckedBags.Quantity},
			})
		}

		pricings = append(pricings, map[string]any{
			"travelerId":   pricing.TravelerID,
			"fareOption":   pricing.FareOption,
			"travelerType": pricing.TravelerType,
			"price": map[string]any{
				"total":           pricing.Price.Total,
				"currency":        pricing.Price.Currency,
				"base":            pricing.Price.Base,
				"refundableTaxes": pricing.Price.RefundableTaxes,
				"taxes":           taxes,
			},
			"fareDetailsBySegment": fareDetails,
		})
	}

	return map[string]any{
		"id":                       strconv.Itoa(id),
		"type":                     "flight-offer",
		"validatingAirlineCodes":   offer.ValidatingAirlineCodes,
		"source":                   offer.Source,
		"instantTicketingRequired": offer.InstantTicketingRequired,
		"nonHomogeneous":           offer.NonHomogeneous,
		"paymentCardRequired":      offer.PaymentCardRequired,
		"lastTicketingDate":        offer.LastTicketingDate,
		"itineraries":              itineraries,
		"price": map[string]any{
			"currency":        offer.Price.Currency,
			"total":           offer.Price.Total,
			"base":            offer.Price.Base,
			"grandTotal":      offer.Price.GrandTotal,
			"billingCurrency": offer.Price.BillingCurrency,
			"fees":            fees,
		},
		"pricingOptions": map[string]any{
			"fareType":                offer.PricingOptions.FareType,
			"includedCheckedBagsOnly": offer.PricingOptions.IncludedCheckedBagsOnly,
		},
		"travelerPricings": pricings,
	}
}

func orderTraveler(traveler entity.Traveler) map[string]any {
	phones := make([]map[string]any, 0, len(traveler.Contact.Phones))
	for _, phone := range traveler.Contact.Phones {
		deviceType := phone.DeviceType
		if deviceType == "" {
			deviceType = "MOBILE"
		}
		callingCode := phone.CountryCallingCode
		if callingCode == "" {
			callingCode = "1"
		}
		phones = append(phones, map[string]any{
			"deviceType":         deviceType,
			"countryCallingCode": callingCode,
			"number":             phone.Number,
		})
	}

	documents := make([]map[string]any, 0, len(traveler.Documents))
	for _, doc := range traveler.Documents {
		documents = append(documents, map[string]any{
			"documentType":     doc.DocumentType,
			"number":           doc.Number,
			"expiryDate":       doc.ExpiryDate,
			"nationality":      doc.Nationality,
			"issuanceLocation": doc.IssuanceLocation,
			"issuanceDate":     doc.IssuanceDate,
			"issuanceCountry":  doc.IssuanceCountry,
			"validityCountry":  doc.ValidityCountry,
			"holder":           doc.Holder,
		})
	}

	return map[string]any{
		"id":          traveler.ID,
		"dateOfBirth": traveler.DateOfBirth,
		"name": map[string]any{
			"firstName": strings.ToUpper(traveler.Name.FirstName),
			"lastName":  strings.ToUpper(traveler.Name.LastName),
		},
		"gender": strings.ToUpper(traveler.Gender),
		"contact": map[string]any{
			"emailAddress": traveler.Contact.Email,
			"phones":       phones,
		},
		"documents": documents,
	}
}

// ==================== TRANSFER ORDERS ====================

type TransferOrderResult struct {
	ConfirmNbr      string
	TransferType    string
	Distance        json.RawMessage
	Start           json.RawMessage
	End             json.RawMessage
	Vehicle         json.RawMessage
	ServiceProvider json.RawMessage
	Quotation       json.RawMessage
}

// CreateTransferOrder books the transfer offer. The billing address and
// card come from static config, never from the request.
func (c *AmadeusClient) CreateTransferOrder(ctx context.Context, car *entity.CarTransfer) (*TransferOrderResult, error) {
	if car == nil || car.CarOfferID == "" {
		return nil, fmt.Errorf("%w: no transfer offer stored", utils.ErrValidation)
	}

	note := car.Note
	if note == "" {
		note = "No special requests"
	}

	passengers := make([]map[string]any, 0, len(car.Passengers))
	for _, passenger := range car.Passengers {
		passengers = append(passengers, map[string]any{
			"firstName": passenger.FirstName,
			"lastName":  passenger.LastName,
			"title":     passenger.Title,
			"contacts": map[string]any{
				"phoneNumber": passenger.Contacts.PhoneNumber,
				"email":       passenger.Contacts.Email,
			},
			"billingAddress": map[string]any{
				"line":        c.config.BillingAddressLine,
				"zip":         c.config.BillingAddressZip,
				"countryCode": c.config.BillingAddressCountryCode,
				"cityName":    c.config.BillingAddressCityName,
			},
		})
	}

	data := map[string]any{
		"note":       note,
		"passengers": passengers,
		"payment": map[string]any{
			"methodOfPayment": c.config.MethodOfPayment,
			"creditCard": map[string]any{
				"number":     c.config.CreditCardNumber,
				"holderName": c.config.CreditCardHolderName,
				"vendorCode": c.config.CreditCardVendorCode,
				"expiryDate": c.config.CreditCardExpiryDate,
				"cvv":        c.config.CreditCardCVV,
			},
		},
	}
	if len(car.StartConnectedSegment) > 0 {
		data["startConnectedSegment"] = json.RawMessage(car.StartConnectedSegment)
	}

	path := fmt.Sprintf("%s?offerId=%s", amadeusTransferPath, url.QueryEscape(car.CarOfferID))
	raw, err := c.post(ctx, path, map[string]any{"data": data})
	if err != nil {
		return nil, err
	}

	var result struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
		Data struct {
			Transfers []struct {
				ConfirmNbr      string          `json:"confirmNbr"`
				TransferType    string          `json:"transferType"`
				Distance        json.RawMessage `json:"distance"`
				Start           json.RawMessage `json:"start"`
				End             json.RawMessage `json:"end"`
				Vehicle         json.RawMessage `json:"vehicle"`
				ServiceProvider json.RawMessage `json:"serviceProvider"`
				Quotation       json.RawMessage `json:"quotation"`
				PartnerInfo     struct {
					ServiceProvider json.RawMessage `json:"serviceProvider"`
				} `json:"partnerInfo"`
			} `json:"transfers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode transfer order response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: transfer order: %s", utils.ErrProvider, result.Errors[0].Detail)
	}
	if len(result.Data.Transfers) == 0 {
		return nil, fmt.Errorf("%w: transfer order returned no transfers", utils.ErrProvider)
	}

	transfer := result.Data.Transfers[0]
	serviceProvider := transfer.PartnerInfo.ServiceProvider
	if len(serviceProvider) == 0 {
		serviceProvider = transfer.ServiceProvider
	}

	return &TransferOrderResult{
		ConfirmNbr:      transfer.ConfirmNbr,
		TransferType:    transfer.TransferType,
		Distance:        transfer.Distance,
		Start:           transfer.Start,
		End:             transfer.End,
		Vehicle:         transfer.Vehicle,
		ServiceProvider: serviceProvider,
		Quotation:       transfer.Quotation,
	}, nil
}

func (c *AmadeusClient) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal amadeus payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build amadeus request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: amadeus request: %v", utils.ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read amadeus response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Error("Amadeus API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: amadeus returned HTTP %d", utils.ErrProvider, resp.StatusCode)
	}

	return raw, nil
}
