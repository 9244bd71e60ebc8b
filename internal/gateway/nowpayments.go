package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"nesterlify-api/pkg/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	nowpaymentsCurrenciesKey = "nowpayments:currencies"
	nowpaymentsCurrenciesTTL = 10 * time.Minute
)

// Currency is one entry of the NOWPayments full-currencies listing.
type Currency struct {
	ID      json.Number `json:"id"`
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Enable  bool        `json:"enable"`
	LogoURL string      `json:"logo_url"`
	Ticker  string      `json:"ticker"`
	Network string      `json:"network"`
}

type NOWPaymentsAdapter struct {
	config utils.NOWPaymentsConfig
	client *http.Client
	cache  *redis.Client
	log    *zap.Logger
}

func NewNOWPaymentsAdapter(config utils.NOWPaymentsConfig, cache *redis.Client, log *zap.Logger) *NOWPaymentsAdapter {
	return &NOWPaymentsAdapter{
		config: config,
		client: newHTTPClient(20 * time.Second),
		cache:  cache,
		log:    log.With(zap.String("gateway", "nowpayments")),
	}
}

func (a *NOWPaymentsAdapter) Name() string {
	return "Now Payment"
}

type nowpaymentsOrderPayload struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	CustomerEmail    string  `json:"customer_email,omitempty"`
}

func (a *NOWPaymentsAdapter) CreateOrder(ctx context.Context, input CheckoutInput) (json.RawMessage, error) {
	if input.PayCurrency == "" {
		return nil, fmt.Errorf("%w: pay_currency is required", utils.ErrValidation)
	}

	payload := nowpaymentsOrderPayload{
		PriceAmount:      math.Round(input.Amount*10) / 10,
		PriceCurrency:    input.Currency,
		PayCurrency:      input.PayCurrency,
		IPNCallbackURL:   a.config.WebhookURL,
		OrderID:          input.OrderID,
		OrderDescription: fmt.Sprintf("Payment for %s booking", input.BookingType),
		CustomerEmail:    input.CustomerEmail,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal nowpayments payload: %w", err)
	}

	raw, err := a.do(ctx, http.MethodPost, "/payment", body)
	if err != nil {
		return nil, err
	}

	var result struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode nowpayments response: %w", err)
	}
	if result.PaymentID.String() == "" || result.PaymentStatus == "" {
		return nil, fmt.Errorf("%w: nowpayments returned no payment id", utils.ErrGateway)
	}

	return raw, nil
}

// Currencies lists the available pay currencies, cached in Redis so the
// browse page does not hammer the upstream listing.
func (a *NOWPaymentsAdapter) Currencies(ctx context.Context) ([]Currency, error) {
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, nowpaymentsCurrenciesKey).Bytes(); err == nil {
			var currencies []Currency
			if err := json.Unmarshal(cached, &currencies); err == nil {
				return currencies, nil
			}
		}
	}

	raw, err := a.do(ctx, http.MethodGet, "/full-currencies", nil)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Currencies []Currency `json:"currencies"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode nowpayments currencies: %w", err)
	}
	if listing.Currencies == nil {
		return nil, fmt.Errorf("%w: nowpayments currencies listing empty", utils.ErrGateway)
	}

	if a.cache != nil {
		if encoded, err := json.Marshal(listing.Currencies); err == nil {
			if err := a.cache.Set(ctx, nowpaymentsCurrenciesKey, encoded, nowpaymentsCurrenciesTTL).Err(); err != nil {
				a.log.Warn("Failed to cache currencies", zap.Error(err))
			}
		}
	}

	return listing.Currencies, nil
}

// PaymentStatus proxies the upstream payment lookup by gateway payment id.
func (a *NOWPaymentsAdapter) PaymentStatus(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return a.do(ctx, http.MethodGet, "/payment/"+paymentID, nil)
}

func (a *NOWPaymentsAdapter) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build nowpayments request: %w", err)
	}

	req.Header.Set("x-api-key", a.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nowpayments request: %v", utils.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nowpayments response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		a.log.Error("NOWPayments API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: nowpayments returned HTTP %d", utils.ErrGateway, resp.StatusCode)
	}

	return raw, nil
}

// VerifyWebhook checks the IPN signature: HMAC-SHA512 over the request
// body re-serialized with recursively sorted keys. Sorting happens on a
// decoded copy because field order is not guaranteed to survive transport.
func (a *NOWPaymentsAdapter) VerifyWebhook(header http.Header, body []byte) error {
	signature := header.Get("X-Nowpayments-Sig")
	if signature == "" {
		return fmt.Errorf("%w: missing nowpayments signature header", utils.ErrSignature)
	}

	canonical, err := canonicalJSON(body)
	if err != nil {
		return fmt.Errorf("%w: nowpayments webhook body is not valid JSON", utils.ErrSignature)
	}

	mac := hmac.New(sha512.New, []byte(a.config.IPNSecret))
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: nowpayments signature mismatch", utils.ErrSignature)
	}

	return nil
}

func (a *NOWPaymentsAdapter) ParseWebhook(body []byte) (*Event, error) {
	var notification struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
		OrderID       string      `json:"order_id"`
	}
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("decode nowpayments webhook: %w", err)
	}
	if notification.PaymentID.String() == "" || notification.PaymentStatus == "" || notification.OrderID == "" {
		return nil, fmt.Errorf("%w: nowpayments webhook missing required fields", utils.ErrValidation)
	}

	status, err := NormalizeStatus(notification.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return &Event{
		OrderID:          notification.OrderID,
		GatewayPaymentID: notification.PaymentID.String(),
		RawStatus:        notification.PaymentStatus,
		Status:           status,
	}, nil
}

// canonicalJSON re-serializes JSON with object keys sorted at every
// depth. Numbers keep their original text via json.Number so the
// canonical form matches what the sender signed.
func canonicalJSON(body []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
