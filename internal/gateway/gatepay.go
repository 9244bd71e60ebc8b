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
	"net/http"
	"strconv"
	"time"

	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

const (
	gatepayCheckoutPath = "/v1/pay/checkout/order"
	gatepayQueryPath    = "/v1/pay/order/query"
	gatepayClosePath    = "/v1/pay/order/close"
)

type GatePayAdapter struct {
	config utils.GatePayConfig
	client *http.Client
	log    *zap.Logger
}

func NewGatePayAdapter(config utils.GatePayConfig, log *zap.Logger) *GatePayAdapter {
	return &GatePayAdapter{
		config: config,
		client: newHTTPClient(20 * time.Second),
		log:    log.With(zap.String("gateway", "gatepay")),
	}
}

func (a *GatePayAdapter) Name() string {
	return "Gate Pay"
}

// sign pakai canonical string yang sama dengan Binance tapi key-nya
// api key dengan suffix "=" dan hasilnya hex lowercase.
func (a *GatePayAdapter) sign(timestamp, nonce string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(a.config.APIKey+"="))
	fmt.Fprintf(mac, "%s\n%s\n%s\n", timestamp, nonce, body)
	return hex.EncodeToString(mac.Sum(nil))
}

type gatepayEnv struct {
	TerminalType string `json:"terminalType"`
}

type gatepayGoods struct {
	GoodsType   string `json:"goodsType"`
	GoodsName   string `json:"goodsName"`
	GoodsDetail string `json:"goodsDetail"`
}

type gatepayOrderPayload struct {
	MerchantTradeNo string       `json:"merchantTradeNo"`
	Currency        string       `json:"currency"`
	OrderAmount     string       `json:"orderAmount"`
	Env             gatepayEnv   `json:"env"`
	Goods           gatepayGoods `json:"goods"`
	OrderExpireTime int64        `json:"orderExpireTime"`
	ReturnURL       string       `json:"returnUrl"`
	CancelURL       string       `json:"cancelUrl"`
	MerchantUserID  int64        `json:"merchantUserId"`
	Chain           string       `json:"chain"`
	FullCurrType    string       `json:"fullCurrType"`
}

func (a *GatePayAdapter) CreateOrder(ctx context.Context, input CheckoutInput) (json.RawMessage, error) {
	payload := gatepayOrderPayload{
		MerchantTradeNo: input.OrderID,
		Currency:        "USDT",
		OrderAmount:     strconv.FormatFloat(input.Amount, 'f', 8, 64),
		Env:             gatepayEnv{TerminalType: "WEB"},
		Goods: gatepayGoods{
			GoodsType:   "02",
			GoodsName:   fmt.Sprintf("%s - %s", input.BookingType, input.OrderID),
			GoodsDetail: fmt.Sprintf("Order No: %s", input.OrderID),
		},
		OrderExpireTime: time.Now().Add(time.Hour).UnixMilli(),
		ReturnURL:       a.config.ReturnURL,
		CancelURL:       a.config.CancelURL,
		MerchantUserID:  a.config.MerchantUserID,
		Chain:           a.config.Chain,
		FullCurrType:    a.config.FullCurrType,
	}

	return a.post(ctx, gatepayCheckoutPath, payload)
}

// QueryOrder implements Poller.
func (a *GatePayAdapter) QueryOrder(ctx context.Context, orderID string) (*Event, error) {
	raw, err := a.post(ctx, gatepayQueryPath, map[string]string{"orderId": orderID})
	if err != nil {
		return nil, err
	}

	// Gate melaporkan status di dua tempat tergantung versi API.
	var result struct {
		Status string `json:"status"`
		Data   struct {
			Status        string `json:"status"`
			TransactionID string `json:"transactionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode gatepay query response: %w", err)
	}

	rawStatus := result.Data.Status
	if rawStatus == "" {
		rawStatus = result.Status
	}

	status, err := NormalizeStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	return &Event{
		OrderID:          orderID,
		GatewayPaymentID: result.Data.TransactionID,
		RawStatus:        rawStatus,
		Status:           status,
	}, nil
}

// CloseOrder implements Poller. Closing an expired order is best effort
// upstream but the error still surfaces for logging.
func (a *GatePayAdapter) CloseOrder(ctx context.Context, orderID string) error {
	_, err := a.post(ctx, gatepayClosePath, map[string]string{"orderId": orderID})
	return err
}

func (a *GatePayAdapter) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gatepay payload: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := utils.GenerateNonce(16)
	signature := a.sign(timestamp, nonce, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gatepay request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GatePay-API-Key", a.config.APIKey)
	req.Header.Set("X-GatePay-Certificate-ClientId", a.config.ClientID)
	req.Header.Set("X-GatePay-Timestamp", timestamp)
	req.Header.Set("X-GatePay-Nonce", nonce)
	req.Header.Set("X-GatePay-Signature", signature)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gatepay request: %v", utils.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gatepay response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		a.log.Error("GatePay API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: gatepay returned HTTP %d", utils.ErrGateway, resp.StatusCode)
	}

	return raw, nil
}

// VerifyWebhook recomputes the signature from the raw body and the
// X-GatePay timestamp/nonce headers before anything else happens.
func (a *GatePayAdapter) VerifyWebhook(header http.Header, body []byte) error {
	timestamp := header.Get("X-Gatepay-Timestamp")
	nonce := header.Get("X-Gatepay-Nonce")
	signature := header.Get("X-Gatepay-Signature")

	if timestamp == "" || nonce == "" || signature == "" {
		return fmt.Errorf("%w: missing gatepay signature headers", utils.ErrSignature)
	}

	expected := a.sign(timestamp, nonce, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: gatepay signature mismatch", utils.ErrSignature)
	}

	return nil
}

func (a *GatePayAdapter) ParseWebhook(body []byte) (*Event, error) {
	var notification struct {
		BizStatus string `json:"bizStatus"`
		Data      struct {
			MerchantTradeNo string `json:"merchantTradeNo"`
			TransactionID   string `json:"transactionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("decode gatepay webhook: %w", err)
	}
	if notification.Data.MerchantTradeNo == "" {
		return nil, fmt.Errorf("%w: gatepay webhook missing merchantTradeNo", utils.ErrValidation)
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
