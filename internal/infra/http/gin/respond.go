package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/fault"
)

// respondError maps a fault kind onto an HTTP status and renders the stable
// code plus the guest-safe message. Internal detail never leaves the process.
func respondError(c *gin.Context, err error) {
	status := statusFor(fault.KindOf(err))
	c.JSON(status, gin.H{
		"error":   fault.CodeOf(err),
		"message": fault.MessageOf(err),
	})
}

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.Validation, fault.SignatureInvalid:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.AvailabilityConflict, fault.PriceMismatch:
		return http.StatusConflict
	case fault.ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Identity is the pre-authenticated caller, propagated by the edge proxy in
// trusted headers. This service performs no authentication of its own.
type Identity struct {
	UserID string
	Admin  bool
}

func callerIdentity(c *gin.Context) (Identity, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		return Identity{}, false
	}
	return Identity{UserID: userID, Admin: c.GetHeader("X-User-Role") == "admin"}, true
}

func requireIdentity(c *gin.Context) (Identity, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "caller identity missing"})
	}
	return id, ok
}
