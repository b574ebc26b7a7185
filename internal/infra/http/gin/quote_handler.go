package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/quotes"
	"staybook/internal/domain/shared/daterange"
)

type QuoteHandler struct {
	Quotes *quotes.Service
}

func (h *QuoteHandler) StayQuote(c *gin.Context) {
	checkIn, err := time.Parse(daterange.DateKeyLayout, c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse(daterange.DateKeyLayout, c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "check_out must be YYYY-MM-DD"})
		return
	}

	view, err := h.Quotes.StayQuote(c.Request.Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
