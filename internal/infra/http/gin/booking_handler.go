package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/cancellation"
	"staybook/internal/domain/booking"
)

type BookingHandler struct {
	Cancellation *cancellation.Coordinator
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	id := booking.BookingID(c.Param("id"))
	cancelled, err := h.Cancellation.Cancel(c.Request.Context(), id, cancellation.Actor{
		UserID: identity.UserID,
		Admin:  identity.Admin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_id": cancelled.ID,
		"status":     cancelled.Status,
	})
}
