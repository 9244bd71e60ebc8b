package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

const duffelStaysBookingsPath = "/stays/bookings"

// DuffelClient books accommodation through the Duffel Stays API.
type DuffelClient struct {
	config utils.DuffelConfig
	client *http.Client
	log    *zap.Logger
}

func NewDuffelClient(config utils.DuffelConfig, log *zap.Logger) *DuffelClient {
	return &DuffelClient{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "duffel")),
	}
}

type StayBookingResult struct {
	BookingID          string
	Name               string
	Status             string
	CheckInDate        string
	CheckOutDate       string
	Rooms              json.RawMessage
	CheckInInformation entity.CheckInInfo
	Address            entity.StayAddress
}

// CreateStayBooking books the quoted stay for the stored guests.
func (c *DuffelClient) CreateStayBooking(ctx context.Context, hotel *entity.HotelStay) (*StayBookingResult, error) {
	if hotel == nil || hotel.QuoteID == "" {
		return nil, fmt.Errorf("%w: no stay quote stored", utils.ErrValidation)
	}

	payload := map[string]any{
		"data": map[string]any{
			"quote_id":                       hotel.QuoteID,
			"phone_number":                   hotel.PhoneNumber,
			"guests":                         hotel.Guests,
			"email":                          hotel.Email,
			"accommodation_special_requests": hotel.StaySpecialRequests,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal duffel payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+duffelStaysBookingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build duffel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Duffel-Version", "v2")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: duffel request: %v", utils.ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read duffel response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Error("Duffel API error",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: duffel returned HTTP %d", utils.ErrProvider, resp.StatusCode)
	}

	var result struct {
		Data struct {
			ID            string          `json:"id"`
			Status        string          `json:"status"`
			CheckInDate   string          `json:"check_in_date"`
			CheckOutDate  string          `json:"check_out_date"`
			Rooms         json.RawMessage `json:"rooms"`
			Accommodation struct {
				Name               string `json:"name"`
				CheckInInformation struct {
					CheckOutBeforeTime string `json:"check_out_before_time"`
					CheckInBeforeTime  string `json:"check_in_before_time"`
					CheckInAfterTime   string `json:"check_in_after_time"`
				} `json:"check_in_information"`
				Address struct {
					LineOne     string `json:"line_one"`
					CityName    string `json:"city_name"`
					CountryCode string `json:"country_code"`
					PostalCode  string `json:"postal_code"`
				} `json:"address"`
			} `json:"accommodation"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode duffel response: %w", err)
	}

	if result.Data.ID == "" {
		return nil, fmt.Errorf("%w: duffel booking has no id", utils.ErrProvider)
	}

	return &StayBookingResult{
		BookingID:    result.Data.ID,
		Name:         result.Data.Accommodation.Name,
		Status:       result.Data.Status,
		CheckInDate:  result.Data.CheckInDate,
		CheckOutDate: result.Data.CheckOutDate,
		Rooms:        result.Data.Rooms,
		CheckInInformation: entity.CheckInInfo{
			CheckOutBeforeTime: result.Data.Accommodation.CheckInInformation.CheckOutBeforeTime,
			CheckInBeforeTime:  result.Data.Accommodation.CheckInInformation.CheckInBeforeTime,
			CheckInAfterTime:   result.Data.Accommodation.CheckInInformation.CheckInAfterTime,
		},
		Address: entity.StayAddress{
			LineOne:     result.Data.Accommodation.Address.LineOne,
			CityName:    result.Data.Accommodation.Address.CityName,
			CountryCode: result.Data.Accommodation.Address.CountryCode,
			PostalCode:  result.Data.Accommodation.Address.PostalCode,
		},
	}, nil
}
