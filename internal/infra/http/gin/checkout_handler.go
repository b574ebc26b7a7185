package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/checkout"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/shared/daterange"
)

type CheckoutHandler struct {
	Issuer *checkout.Issuer
}

type checkoutRequest struct {
	ListingID  string `json:"listing_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	Guests     int    `json:"guests" binding:"required"`
	Currency   string `json:"currency" binding:"required"`
	Price      string `json:"price" binding:"required"`
	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required,email"`
	GuestPhone string `json:"guest_phone"`
	Note       string `json:"note"`
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	checkIn, err := time.Parse(daterange.DateKeyLayout, req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse(daterange.DateKeyLayout, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "check_out must be YYYY-MM-DD"})
		return
	}

	result, err := h.Issuer.Issue(c.Request.Context(), checkout.IssueInput{
		ListingID:   req.ListingID,
		GuestUserID: identity.UserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      req.Guests,
		Currency:    req.Currency,
		ClientPrice: req.Price,
		Guest: booking.GuestContact{
			Name:  req.GuestName,
			Email: req.GuestEmail,
			Phone: req.GuestPhone,
		},
		Note:           req.Note,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
