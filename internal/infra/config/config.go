package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	MongoURI string
	MongoDB  string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr     string
	RedisPassword string
	RatesCacheTTL time.Duration

	PMSBaseURL string
	PMSTimeout time.Duration

	PaymentsBaseURL       string
	PaymentsSecretKey     string
	PaymentsWebhookSecret string
	PaymentsTimeout       time.Duration
	WebhookTolerance      time.Duration

	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                   getEnv("APP_ENV", "dev"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getEnv("MONGO_DB", "staybook"),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "booking-events"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		PMSBaseURL:            os.Getenv("PMS_BASE_URL"),
		PaymentsBaseURL:       os.Getenv("PAYMENTS_BASE_URL"),
		PaymentsSecretKey:     os.Getenv("PAYMENTS_SECRET_KEY"),
		PaymentsWebhookSecret: os.Getenv("PAYMENTS_WEBHOOK_SECRET"),
		CheckoutSuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success"),
		CheckoutCancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancelled"),
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.RatesCacheTTL, err = parseDurationEnv("RATES_CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PMSTimeout, err = parseDurationEnv("PMS_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PaymentsTimeout, err = parseDurationEnv("PAYMENTS_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WebhookTolerance, err = parseDurationEnv("WEBHOOK_TOLERANCE", 5*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.PMSBaseURL == "" {
		return Config{}, fmt.Errorf("PMS_BASE_URL is required")
	}
	if cfg.PaymentsBaseURL == "" {
		return Config{}, fmt.Errorf("PAYMENTS_BASE_URL is required")
	}
	if cfg.PaymentsSecretKey == "" {
		return Config{}, fmt.Errorf("PAYMENTS_SECRET_KEY is required")
	}
	if cfg.PaymentsWebhookSecret == "" {
		return Config{}, fmt.Errorf("PAYMENTS_WEBHOOK_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
