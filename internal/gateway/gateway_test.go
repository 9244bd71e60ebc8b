package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"testing"

	"nesterlify-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected Status
	}{
		{"PAY_SUCCESS", StatusSuccess},
		{"SUCCESS", StatusSuccess},
		{"finished", StatusSuccess},
		{"waiting", StatusWaiting},
		{"confirming", StatusProcessing},
		{"sending", StatusProcessing},
		{"failed", StatusFailed},
		{"expired", StatusFailed},
		{"refunded", StatusFailed},
		{"PAY_CLOSED", StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, err := NormalizeStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestNormalizeStatusUnknown(t *testing.T) {
	_, err := NormalizeStatus("partially_paid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrUnknownStatus))
}

func TestBinanceSignIsDeterministicUppercaseHex(t *testing.T) {
	adapter := NewBinanceAdapter(utils.BinanceConfig{SecretKey: "secret"}, zap.NewNop())

	first := adapter.sign("1700000000000", "abcdef0123456789", []byte(`{"merchantTradeNo":"ORD-1"}`))
	second := adapter.sign("1700000000000", "abcdef0123456789", []byte(`{"merchantTradeNo":"ORD-1"}`))

	assert.Equal(t, first, second)
	assert.Equal(t, strings.ToUpper(first), first)
	assert.Len(t, first, 128)
}

func TestBinanceVerifyWebhook(t *testing.T) {
	adapter := NewBinanceAdapter(utils.BinanceConfig{SecretKey: "secret"}, zap.NewNop())
	body := []byte(`{"bizStatus":"PAY_SUCCESS","data":{"merchantTradeNo":"ORD-1"}}`)

	header := http.Header{}
	header.Set("BinancePay-Timestamp", "1700000000000")
	header.Set("BinancePay-Nonce", "abcdef0123456789")
	header.Set("BinancePay-Signature", adapter.sign("1700000000000", "abcdef0123456789", body))

	assert.NoError(t, adapter.VerifyWebhook(header, body))

	tampered := []byte(`{"bizStatus":"PAY_SUCCESS","data":{"merchantTradeNo":"ORD-2"}}`)
	err := adapter.VerifyWebhook(header, tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrSignature))
}

func TestBinanceVerifyWebhookMissingHeaders(t *testing.T) {
	adapter := NewBinanceAdapter(utils.BinanceConfig{SecretKey: "secret"}, zap.NewNop())

	err := adapter.VerifyWebhook(http.Header{}, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrSignature))
}

func TestBinanceParseWebhook(t *testing.T) {
	adapter := NewBinanceAdapter(utils.BinanceConfig{}, zap.NewNop())

	event, err := adapter.ParseWebhook([]byte(`{"bizStatus":"PAY_SUCCESS","data":{"merchantTradeNo":"ORD-1","transactionId":"bp-42"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", event.OrderID)
	assert.Equal(t, "bp-42", event.GatewayPaymentID)
	assert.Equal(t, StatusSuccess, event.Status)

	_, err = adapter.ParseWebhook([]byte(`{"bizStatus":"PAY_SUCCESS","data":{}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestGatePaySignUsesSuffixedKeyLowercaseHex(t *testing.T) {
	adapter := NewGatePayAdapter(utils.GatePayConfig{APIKey: "apikey"}, zap.NewNop())

	body := []byte(`{"orderId":"ORD-1"}`)
	signature := adapter.sign("1700000000000", "0123456789abcdef", body)

	mac := hmac.New(sha512.New, []byte("apikey="))
	mac.Write([]byte("1700000000000\n0123456789abcdef\n" + string(body) + "\n"))
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, signature)
	assert.Equal(t, strings.ToLower(signature), signature)
}

func TestGatePayVerifyWebhook(t *testing.T) {
	adapter := NewGatePayAdapter(utils.GatePayConfig{APIKey: "apikey"}, zap.NewNop())
	body := []byte(`{"bizStatus":"PAY_SUCCESS","data":{"merchantTradeNo":"ORD-9"}}`)

	header := http.Header{}
	header.Set("X-GatePay-Timestamp", "1700000000000")
	header.Set("X-GatePay-Nonce", "0123456789abcdef")
	header.Set("X-GatePay-Signature", adapter.sign("1700000000000", "0123456789abcdef", body))

	assert.NoError(t, adapter.VerifyWebhook(header, body))

	header.Set("X-GatePay-Signature", "deadbeef")
	err := adapter.VerifyWebhook(header, body)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrSignature))
}

func TestNOWPaymentsVerifyWebhookSortsKeys(t *testing.T) {
	adapter := NewNOWPaymentsAdapter(utils.NOWPaymentsConfig{IPNSecret: "ipnsecret"}, nil, zap.NewNop())

	// Body arrives with unsorted keys; the signature is computed over the
	// key-sorted form.
	body := []byte(`{"payment_status":"finished","order_id":"ORD-7","payment_id":5077125051}`)
	sorted := `{"order_id":"ORD-7","payment_id":5077125051,"payment_status":"finished"}`

	mac := hmac.New(sha512.New, []byte("ipnsecret"))
	mac.Write([]byte(sorted))
	signature := hex.EncodeToString(mac.Sum(nil))

	header := http.Header{}
	header.Set("x-nowpayments-sig", signature)

	assert.NoError(t, adapter.VerifyWebhook(header, body))
}

func TestNOWPaymentsVerifyWebhookRejectsMismatch(t *testing.T) {
	adapter := NewNOWPaymentsAdapter(utils.NOWPaymentsConfig{IPNSecret: "ipnsecret"}, nil, zap.NewNop())

	header := http.Header{}
	header.Set("x-nowpayments-sig", strings.Repeat("ab", 64))

	err := adapter.VerifyWebhook(header, []byte(`{"order_id":"ORD-7"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrSignature))
}

func TestNOWPaymentsParseWebhook(t *testing.T) {
	adapter := NewNOWPaymentsAdapter(utils.NOWPaymentsConfig{}, nil, zap.NewNop())

	event, err := adapter.ParseWebhook([]byte(`{"payment_id":5077125051,"payment_status":"confirming","order_id":"ORD-7"}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-7", event.OrderID)
	assert.Equal(t, "5077125051", event.GatewayPaymentID)
	assert.Equal(t, StatusProcessing, event.Status)

	_, err = adapter.ParseWebhook([]byte(`{"payment_status":"confirming"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestCanonicalJSONPreservesNumberText(t *testing.T) {
	canonical, err := canonicalJSON([]byte(`{"b":{"y":2,"x":"v"},"a":10.50}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":10.50,"b":{"x":"v","y":2}}`, string(canonical))
}
