package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"staybook/internal/app/availability"
	"staybook/internal/app/cancellation"
	"staybook/internal/app/checkout"
	"staybook/internal/app/hostpricing"
	"staybook/internal/app/quotes"
	"staybook/internal/app/settlement"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/cache"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/payments"
	"staybook/internal/infra/pms"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	store, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: store.Ping,
	}, app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildApplication(ctx context.Context, cfg config.Config, store *mongostore.Client, logger *slog.Logger) (ginserver.Handlers, func(), error) {
	cleanup := func() {}

	bookings := mongostore.NewBookingRepository(store.DB)
	periods := mongostore.NewPricingPeriodRepository(store.DB)
	accounts := mongostore.NewListingAccountRepository(store.DB)
	idempotency := mongostore.NewIdempotencyStore(store.DB)
	events := mongostore.NewEventLogSink(store.DB, logger)

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := bookings.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("booking index creation failed", "error", err)
	}
	if err := idempotency.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("idempotency index creation failed", "error", err)
	}

	pmsClient := pms.New(cfg.PMSBaseURL, cfg.PMSTimeout, logger)
	paymentsClient := payments.New(cfg.PaymentsBaseURL, cfg.PaymentsSecretKey, cfg.PaymentsTimeout, logger)
	webhookVerifier := &payments.Verifier{Secret: cfg.PaymentsWebhookSecret, Tolerance: cfg.WebhookTolerance}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	}
	rateCache := cache.NewRateCache(rdb, pmsClient, cfg.RatesCacheTTL, logger)

	var producer *kafka.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		raw, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return ginserver.Handlers{}, cleanup, err
		}
		prev := cleanup
		cleanup = func() {
			if err := raw.Close(); err != nil {
				logger.Warn("kafka producer close failed", "error", err)
			}
			prev()
		}
		producer = &kafka.EventPublisher{Producer: raw, Topic: cfg.KafkaTopic}
	} else {
		logger.Warn("kafka brokers not configured, booking events disabled")
	}

	verifier := &availability.Verifier{PMS: pmsClient, Credentials: accounts, Logger: logger}
	gate := &checkout.PriceIntegrityGate{Rates: rateCache, Events: events, Logger: logger}

	issuer := &checkout.Issuer{
		Bookings:    bookings,
		Verifier:    verifier,
		Gate:        gate,
		Payments:    paymentsClient,
		Idempotency: idempotency,
		Events:      events,
		Logger:      logger,
		SuccessURL:  cfg.CheckoutSuccessURL,
		CancelURL:   cfg.CheckoutCancelURL,
	}
	processor := &settlement.Processor{
		Bookings:    bookings,
		PMS:         pmsClient,
		Credentials: accounts,
		Events:      events,
		Logger:      logger,
	}
	coordinator := &cancellation.Coordinator{
		Bookings:    bookings,
		Payments:    paymentsClient,
		PMS:         pmsClient,
		Credentials: accounts,
		Events:      events,
		Logger:      logger,
	}
	if producer != nil {
		processor.Producer = producer
		coordinator.Producer = producer
	}
	quoteService := &quotes.Service{Rates: rateCache, Credentials: accounts}
	pricingService := &hostpricing.Service{Periods: periods, Credentials: accounts, Logger: logger}

	return ginserver.Handlers{
		Checkout: &ginserver.CheckoutHandler{Issuer: issuer},
		Webhook:  &ginserver.WebhookHandler{Verifier: webhookVerifier, Processor: processor, Logger: logger},
		Booking:  &ginserver.BookingHandler{Cancellation: coordinator},
		Quote:    &ginserver.QuoteHandler{Quotes: quoteService},
		Pricing:  &ginserver.PricingHandler{Pricing: pricingService},
	}, cleanup, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
