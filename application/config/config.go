package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"paywall-bench/application/paywall_client"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Sandbox credentials published by the provider for integration testing.
const (
	DEFAULT_PAYWALL_URL  = "https://payment.checkout.fi"
	DEFAULT_MERCHANT     = "375917"
	DEFAULT_SECURITY_KEY = "SAIPPUAKAUPPIAS"
)

type Config struct {
	Port string `validate:"required,numeric"`

	PaywallURL   string   `validate:"required,url"`
	Merchant     string   `validate:"required"`
	SecurityKey  string   `validate:"required"`
	Version      string   `validate:"required"`
	Language     string   `validate:"required"`
	Country      string   `validate:"required"`
	Currency     string   `validate:"required"`
	Device       string   `validate:"required"`
	Content      string   `validate:"required"`
	Type         string   `validate:"required"`
	Algorithm    string   `validate:"required"`
	MacAlgorithm string   `validate:"required,oneof=md5 sha1 sha256 sha512"`
	MacFields    []string `validate:"required,min=1,dive,required"`

	WallTimeouts     paywall_client.Timeouts
	ProbeTimeouts    paywall_client.Timeouts
	ProbeConcurrency int    `validate:"gte=0"`
	ProbeMode        string `validate:"oneof=first-error settled"`

	BenchSchedule  string
	JaegerEndpoint string

	SQSEndpointURL     string
	RequestsQueueName  string
	ResponsesQueueName string `validate:"required_with=RequestsQueueName"`
}

var validate = validator.New()

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:               getString("PORT", "8080"),
		PaywallURL:         getString("PAYWALL_URL", DEFAULT_PAYWALL_URL),
		Merchant:           getString("PAYWALL_MERCHANT", DEFAULT_MERCHANT),
		SecurityKey:        getString("PAYWALL_SECURITY_KEY", DEFAULT_SECURITY_KEY),
		Version:            getString("PAYWALL_VERSION", "0001"),
		Language:           getString("PAYWALL_LANGUAGE", "FI"),
		Country:            getString("PAYWALL_COUNTRY", "FIN"),
		Currency:           getString("PAYWALL_CURRENCY", "EUR"),
		Device:             getString("PAYWALL_DEVICE", "10"),
		Content:            getString("PAYWALL_CONTENT", "1"),
		Type:               getString("PAYWALL_TYPE", "0"),
		Algorithm:          getString("PAYWALL_ALGORITHM", "3"),
		MacAlgorithm:       strings.ToLower(getString("PAYWALL_MAC_ALGORITHM", string(payload.MD5))),
		MacFields:          getList("PAYWALL_MAC_FIELDS", payload.DefaultFields),
		BenchSchedule:      getString("BENCH_SCHEDULE", ""),
		JaegerEndpoint:     getString("JAEGER_ENDPOINT", ""),
		SQSEndpointURL:     getString("ENDPOINT_URL", ""),
		RequestsQueueName:  getString("BENCHMARK_REQUESTS_QUEUE_NAME", ""),
		ResponsesQueueName: getString("BENCHMARK_RESPONSES_QUEUE_NAME", ""),
		ProbeMode:          strings.ToLower(getString("PROBE_MODE", string(paywall.ModeFirstError))),
	}

	var err error
	if cfg.ProbeConcurrency, err = getInt("PROBE_CONCURRENCY", 0); err != nil {
		return nil, err
	}
	if cfg.WallTimeouts.Response, err = getDuration("PAYWALL_RESPONSE_TIMEOUT", 1800*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.WallTimeouts.Deadline, err = getDuration("PAYWALL_DEADLINE", 3500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeouts.Response, err = getDuration("PROBE_RESPONSE_TIMEOUT", 1800*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeouts.Deadline, err = getDuration("PROBE_DEADLINE", 3500*time.Millisecond); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Signer().Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Defaults is the base payload every signed request starts from.
func (c *Config) Defaults() payload.Payload {
	return payload.Payload{
		"VERSION":       c.Version,
		"STAMP":         "",
		"AMOUNT":        "",
		"REFERENCE":     "",
		"MESSAGE":       "",
		"LANGUAGE":      c.Language,
		"MERCHANT":      c.Merchant,
		"RETURN":        "",
		"CANCEL":        "",
		"REJECT":        "",
		"DELAYED":       "",
		"COUNTRY":       c.Country,
		"CURRENCY":      c.Currency,
		"DEVICE":        c.Device,
		"CONTENT":       c.Content,
		"TYPE":          c.Type,
		"ALGORITHM":     c.Algorithm,
		"DELIVERY_DATE": "",
		"FIRSTNAME":     "",
		"FAMILYNAME":    "",
		"ADDRESS":       "",
		"POSTCODE":      "",
		"POSTOFFICE":    "",
		"MAC":           "",
		"EMAIL":         "",
		"PHONE":         "",
		"SECURITY_KEY":  c.SecurityKey,
	}
}

func (c *Config) Signer() *payload.Signer {
	return payload.NewSigner(c.Defaults(), c.MacFields, payload.Algorithm(c.MacAlgorithm))
}

func (c *Config) FanOut() paywall.FanOut {
	return paywall.FanOut{
		Limit: c.ProbeConcurrency,
		Mode:  paywall.Mode(c.ProbeMode),
	}
}

func (c *Config) ClientConfig() paywall_client.Config {
	return paywall_client.Config{
		URL:   c.PaywallURL,
		Wall:  c.WallTimeouts,
		Probe: c.ProbeTimeouts,
	}
}

func (c *Config) BrokerEnabled() bool {
	return c.RequestsQueueName != ""
}

func getString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return intValue, nil
}

// getDuration accepts Go durations ("1.5s") or plain milliseconds ("1500").
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if ms, atoiErr := strconv.Atoi(value); atoiErr == nil {
		d, err = time.Duration(ms)*time.Millisecond, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, d)
	}
	return d, nil
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
