package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Binance     BinanceConfig
	GatePay     GatePayConfig
	NOWPayments NOWPaymentsConfig
	Amadeus     AmadeusConfig
	Duffel      DuffelConfig
	Email       EmailConfig
	Poller      PollerConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type BinanceConfig struct {
	APIKey     string
	SecretKey  string
	BaseURL    string
	ReturnURL  string
	CancelURL  string
	WebhookURL string
}

type GatePayConfig struct {
	ClientID       string
	APIKey         string
	MerchantUserID int64
	Chain          string
	FullCurrType   string
	BaseURL        string
	ReturnURL      string
	CancelURL      string
}

type NOWPaymentsConfig struct {
	APIKey     string
	IPNSecret  string
	BaseURL    string
	WebhookURL string
}

type AmadeusConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string

	// Static billing instrument untuk transfer orders
	BillingAddressLine        string
	BillingAddressZip         string
	BillingAddressCountryCode string
	BillingAddressCityName    string
	MethodOfPayment           string
	CreditCardNumber          string
	CreditCardHolderName      string
	CreditCardVendorCode      string
	CreditCardExpiryDate      string
	CreditCardCVV             string
}

type DuffelConfig struct {
	Token   string
	BaseURL string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type PollerConfig struct {
	Interval      time.Duration
	PendingWindow time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BINANCE_BASE_URL", "https://bpay.binanceapi.com")
	viper.SetDefault("GATEPAY_BASE_URL", "https://openplatform.gateapi.io")
	viper.SetDefault("NOWPAYMENTS_BASE_URL", "https://api.nowpayments.io/v1")
	viper.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	viper.SetDefault("DUFFEL_BASE_URL", "https://api.duffel.com")
	viper.SetDefault("POLL_INTERVAL_SECONDS", 30)
	viper.SetDefault("PENDING_WINDOW_MINUTES", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		Binance: BinanceConfig{
			APIKey:     viper.GetString("BINANCE_API_KEY"),
			SecretKey:  viper.GetString("BINANCE_SECRET_KEY"),
			BaseURL:    viper.GetString("BINANCE_BASE_URL"),
			ReturnURL:  viper.GetString("BINANCE_RETURN_URL"),
			CancelURL:  viper.GetString("BINANCE_CANCEL_URL"),
			WebhookURL: viper.GetString("BINANCE_WEBHOOK_URL"),
		},
		GatePay: GatePayConfig{
			ClientID:       viper.GetString("GATEPAY_CLIENT_ID"),
			APIKey:         viper.GetString("GATEPAY_API_KEY"),
			MerchantUserID: viper.GetInt64("GATEPAY_MERCHANT_USERID"),
			Chain:          viper.GetString("GATEPAY_CHAIN"),
			FullCurrType:   viper.GetString("GATEPAY_FULL_CURR_TYPE"),
			BaseURL:        viper.GetString("GATEPAY_BASE_URL"),
			ReturnURL:      viper.GetString("GATEPAY_RETURN_URL"),
			CancelURL:      viper.GetString("GATEPAY_CANCEL_URL"),
		},
		NOWPayments: NOWPaymentsConfig{
			APIKey:     viper.GetString("NOWPAYMENTS_API_KEY"),
			IPNSecret:  viper.GetString("NOWPAYMENTS_IPN_SECRET"),
			BaseURL:    viper.GetString("NOWPAYMENTS_BASE_URL"),
			WebhookURL: viper.GetString("NOWPAYMENTS_WEBHOOK_URL"),
		},
		Amadeus: AmadeusConfig{
			ClientID:     viper.GetString("AMADEUS_CLIENT_ID"),
			ClientSecret: viper.GetString("AMADEUS_CLIENT_SECRET"),
			BaseURL:      viper.GetString("AMADEUS_BASE_URL"),

			BillingAddressLine:        viper.GetString("BILLING_ADDRESS_LINE"),
			BillingAddressZip:         viper.GetString("BILLING_ADDRESS_ZIP"),
			BillingAddressCountryCode: viper.GetString("BILLING_ADDRESS_COUNTRY_CODE"),
			BillingAddressCityName:    viper.GetString("BILLING_ADDRESS_CITY_NAME"),
			MethodOfPayment:           viper.GetString("PAYMENT_METHOD_OF_PAYMENT"),
			CreditCardNumber:          viper.GetString("PAYMENT_CREDIT_CARD_NUMBER"),
			CreditCardHolderName:      viper.GetString("PAYMENT_CREDIT_CARD_HOLDER_NAME"),
			CreditCardVendorCode:      viper.GetString("PAYMENT_CREDIT_CARD_VENDOR_CODE"),
			CreditCardExpiryDate:      viper.GetString("PAYMENT_CREDIT_CARD_EXPIRY_DATE"),
			CreditCardCVV:             viper.GetString("PAYMENT_CREDIT_CARD_CVV"),
		},
		Duffel: DuffelConfig{
			Token:   viper.GetString("DUFFEL_TOKEN"),
			BaseURL: viper.GetString("DUFFEL_BASE_URL"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Poller: PollerConfig{
			Interval:      time.Duration(viper.GetInt("POLL_INTERVAL_SECONDS")) * time.Second,
			PendingWindow: time.Duration(viper.GetInt("PENDING_WINDOW_MINUTES")) * time.Minute,
		},
	}

	return config, nil
}

// Validate cek credential gateway/provider saat startup.
// Missing secrets are a process-start error, never a per-request error.
func (c *Config) Validate() error {
	var missing []string

	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	check("DB_HOST", c.Database.Host)
	check("DB_NAME", c.Database.Name)
	check("DB_USER", c.Database.User)

	check("BINANCE_API_KEY", c.Binance.APIKey)
	check("BINANCE_SECRET_KEY", c.Binance.SecretKey)
	check("BINANCE_BASE_URL", c.Binance.BaseURL)

	check("GATEPAY_CLIENT_ID", c.GatePay.ClientID)
	check("GATEPAY_API_KEY", c.GatePay.APIKey)
	check("GATEPAY_BASE_URL", c.GatePay.BaseURL)

	check("NOWPAYMENTS_API_KEY", c.NOWPayments.APIKey)
	check("NOWPAYMENTS_IPN_SECRET", c.NOWPayments.IPNSecret)
	check("NOWPAYMENTS_BASE_URL", c.NOWPayments.BaseURL)

	check("AMADEUS_CLIENT_ID", c.Amadeus.ClientID)
	check("AMADEUS_CLIENT_SECRET", c.Amadeus.ClientSecret)
	check("DUFFEL_TOKEN", c.Duffel.Token)

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	return nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
