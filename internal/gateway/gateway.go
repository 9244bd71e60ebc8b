package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nesterlify-api/pkg/utils"
)

// Status adalah vocabulary internal setelah normalisasi status gateway.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Event is a normalized payment notification, either from a webhook
// or from polling the gateway order API.
type Event struct {
	OrderID          string
	GatewayPaymentID string
	RawStatus        string
	Status           Status
}

// CheckoutInput carries everything an adapter needs to open an order.
type CheckoutInput struct {
	OrderID       string
	Amount        float64
	Currency      string
	BookingType   string
	PayCurrency   string
	CustomerEmail string
}

// Adapter abstracts one payment gateway. Webhook verification works on
// the raw body bytes so re-serialization can never change what is signed.
type Adapter interface {
	Name() string
	CreateOrder(ctx context.Context, input CheckoutInput) (json.RawMessage, error)
	VerifyWebhook(header http.Header, body []byte) error
	ParseWebhook(body []byte) (*Event, error)
}

// Poller is implemented by adapters whose orders must be reconciled by
// polling in addition to webhooks.
type Poller interface {
	QueryOrder(ctx context.Context, orderID string) (*Event, error)
	CloseOrder(ctx context.Context, orderID string) error
}

// NormalizeStatus maps every raw gateway status onto the internal
// vocabulary. Unknown statuses are an error, never a silent default.
func NormalizeStatus(raw string) (Status, error) {
	switch raw {
	case "PAY_SUCCESS", "SUCCESS", "finished":
		return StatusSuccess, nil
	case "waiting":
		return StatusWaiting, nil
	case "confirming", "sending":
		return StatusProcessing, nil
	case "failed", "expired", "refunded", "PAY_CLOSED":
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", utils.ErrUnknownStatus, raw)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
