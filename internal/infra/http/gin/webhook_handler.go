package ginserver

import (
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/policies"
	"staybook/internal/app/settlement"
)

// WebhookHandler terminates payment processor deliveries. The contract with
// the processor is strict: 400 tells it the request itself was bad, 200
// acknowledges the delivery (including business dead ends), and 5xx asks for
// a retry.
type WebhookHandler struct {
	Verifier  policies.WebhookVerifier
	Processor *settlement.Processor
	Logger    *slog.Logger
}

const maxWebhookBody = 1 << 20

func (h *WebhookHandler) Handle(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "could not read body"})
		return
	}

	event, err := h.Verifier.VerifyAndParse(rawBody, c.GetHeader("X-Signature"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook signature rejected", "remote", c.ClientIP(), "error", err)
		}
		respondError(c, err)
		return
	}

	if err := h.Processor.ProcessEvent(c.Request.Context(), event); err != nil {
		// Transient failure: the processor redelivers with a fresh signature.
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
