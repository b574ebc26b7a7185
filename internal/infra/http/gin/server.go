package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type CheckoutHTTP interface {
	Create(c *gin.Context)
}

type WebhookHTTP interface {
	Handle(c *gin.Context)
}

type BookingHTTP interface {
	Cancel(c *gin.Context)
}

type QuoteHTTP interface {
	StayQuote(c *gin.Context)
}

type PricingHTTP interface {
	ApplyOverride(c *gin.Context)
}

type Handlers struct {
	Checkout CheckoutHTTP
	Webhook  WebhookHTTP
	Booking  BookingHTTP
	Quote    QuoteHTTP
	Pricing  PricingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Checkout != nil {
		api.POST("/checkout", h.Checkout.Create)
	}
	if h.Webhook != nil {
		api.POST("/payments/webhook", h.Webhook.Handle)
	}
	if h.Booking != nil {
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Quote != nil {
		api.GET("/listings/:id/quote", h.Quote.StayQuote)
	}
	if h.Pricing != nil {
		api.POST("/host/listings/:id/pricing-periods", h.Pricing.ApplyOverride)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
