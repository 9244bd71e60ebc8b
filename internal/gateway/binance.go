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
	"strconv"
	"strings"
	"time"

	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

const (
	binanceOrderPath = "/binancepay/openapi/v2/order"
	binanceQueryPath = "/binancepay/openapi/v2/order/query"
)

type BinanceAdapter struct {
	config utils.BinanceConfig
	client *http.Client
	log    *zap.Logger
}

func NewBinanceAdapter(config utils.BinanceConfig, log *zap.Logger) *BinanceAdapter {
	return &BinanceAdapter{
		config: config,
		client: newHTTPClient(20 * time.Second),
		log:    log.With(zap.String("gateway", "binance")),
	}
}

func (a *BinanceAdapter) Name() string {
	return "Binance Pay"
}

// sign menghitung HMAC-SHA512 atas canonical string "{ts}\n{nonce}\n{body}\n",
// hex uppercase sesuai kontrak Binance Pay.
func (a *BinanceAdapter) sign(timestamp, nonce string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(a.config.SecretKey))
	fmt.Fprintf(mac, "%s\n%s\n%s\n", timestamp, nonce, body)
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

type binanceEnv struct {
	TerminalType string `json:"terminalType"`
}

type binanceGoods struct {
	GoodsType        string `json:"goodsType"`
	GoodsCategory    string `json:"goodsCategory"`
	ReferenceGoodsID string `json:"referenceGoodsId"`
	GoodsName        string `json:"goodsName"`
	GoodsDetail      string `json:"goodsDetail"`
}

type binanceOrderPayload struct {
	Env             binanceEnv   `json:"env"`
	MerchantTradeNo string       `json:"merchantTradeNo"`
	OrderAmount     float64      `json:"orderAmount"`
	Currency        string       `json:"currency"`
	Goods           binanceGoods `json:"goods"`
	TradeType       string       `json:"tradeType"`
	Timeout         int          `json:"timeout"`
	ReturnURL       string       `json:"returnUrl"`
	CancelURL       string       `json:"cancelUrl"`
	WebhookURL      string       `json:"webhookUrl"`
}

func (a *BinanceAdapter) CreateOrder(ctx context.Context, input CheckoutInput) (json.RawMessage, error) {
	payload := binanceOrderPayload{
		Env:             binanceEnv{TerminalType: "WEB"},
		MerchantTradeNo: input.OrderID,
		OrderAmount:     math.Round(input.Amount*100) / 100,
		Currency:        "USDT",
		Goods: binanceGoods{
			GoodsType:        "01",
			GoodsCategory:    "0000",
			ReferenceGoodsID: input.OrderID,
			GoodsName:        "Booking Payment",
			GoodsDetail:      "Payment for booking services",
		},
		TradeType:  "WEB",
		Timeout:    1800,
		ReturnURL:  a.config.ReturnURL,
		CancelURL:  a.config.CancelURL,
		WebhookURL: a.config.WebhookURL,
	}

	return a.post(ctx, binanceOrderPath, payload)
}

// QueryOrder looks up the order via the Binance order query API.
func (a *BinanceAdapter) QueryOrder(ctx context.Context, orderID string) (*Event, error) {
	raw, err := a.post(ctx, binanceQueryPath, map[string]string{"merchantTradeNo": orderID})
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			Status        string `json:"status"`
			TransactionID string `json:"transactionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode binance query response: %w", err)
	}

	status, err := NormalizeStatus(result.Data.Status)
	if err != nil {
		return nil, err
	}

	return &Event{
		OrderID:          orderID,
		GatewayPaymentID: result.Data.TransactionID,
		RawStatus:        result.Data.Status,
		Status:           status,
	}, nil
}

func (a *BinanceAdapter) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal binance payload: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := utils.GenerateNonce(16)
	signature := a.sign(timestamp, nonce, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build binance request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("BinancePay-Timestamp", timestamp)
	req.Header.Set("BinancePay-Nonce", nonce)
	req.Header.Set("BinancePay-Certificate-SN", a.config.APIKey)
	req.Header.Set("BinancePay-Signature", signature)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: binance request: %v", utils.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read binance response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		a.log.Error("Binance API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: binance returned HTTP %d", utils.ErrGateway, resp.StatusCode)
	}

	var envelope struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode binance response: %w", err)
	}
	if envelope.Status != "SUCCESS" {
		return nil, fmt.Errorf("%w: binance %s: %s", utils.ErrGateway, envelope.Status, envelope.ErrorMessage)
	}

	return raw, nil
}

// VerifyWebhook recomputes the signature from the raw body and the
// timestamp/nonce headers. Verification happens before any lookup.
func (a *BinanceAdapter) VerifyWebhook(header http.Header, body []byte) error {
	timestamp := header.Get("Binancepay-Timestamp")
	nonce := header.Get("Binancepay-Nonce")
	signature := header.Get("Binancepay-Signature")

	if timestamp == "" || nonce == "" || signature == "" {
		return fmt.Errorf("%w: missing binance signature headers", utils.ErrSignature)
	}

	expected := a.sign(timestamp, nonce, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToUpper(signature))) {
		return fmt.Errorf("%w: binance signature mismatch", utils.ErrSignature)
	}

	return nil
}

func (a *BinanceAdapter) ParseWebhook(body []byte) (*Event, error) {
	var notification struct {
		BizStatus string `json:"bizStatus"`
		Data      struct {
			MerchantTradeNo string `json:"merchantTradeNo"`
			TransactionID   string `json:"transactionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("decode binance webhook: %w", err)
	}
	if notification.Data.MerchantTradeNo == "" {
		return nil, fmt.Errorf("%w: binance webhook missing merchantTradeNo", utils.ErrValidation)
	}

	status, err := NormalizeStatus(notification.BizStatus)
	if err != nil {
		return nil, err
	}

	return &Event{
		OrderID:          notification.Data.MerchantTradeNo,
		GatewayPaymentID: notification.Data.TransactionID,
		RawStatus:        notification.BizStatus,
		Status:           status,
	}, nil
}
