package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/hostpricing"
	"staybook/internal/domain/shared/daterange"
)

type PricingHandler struct {
	Pricing *hostpricing.Service
}

type pricingOverrideRequest struct {
	StartDate         string `json:"start_date" binding:"required"`
	EndDate           string `json:"end_date" binding:"required"`
	PriceMinor        *int64 `json:"price_minor"`
	PercentAdjustment *int   `json:"percent_adjustment"`
	Label             string `json:"label"`
}

func (h *PricingHandler) ApplyOverride(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req pricingOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	start, err := time.Parse(daterange.DateKeyLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(daterange.DateKeyLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dates", "message": "end_date must be YYYY-MM-DD"})
		return
	}

	plan, err := h.Pricing.ApplyOverride(c.Request.Context(), hostpricing.OverrideInput{
		ListingID:         c.Param("id"),
		HostUserID:        identity.UserID,
		Admin:             identity.Admin,
		StartDate:         start,
		EndDate:           end,
		PriceMinor:        req.PriceMinor,
		PercentAdjustment: req.PercentAdjustment,
		Label:             req.Label,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added":   len(plan.ToAdd),
		"updated": len(plan.ToUpdate),
		"deleted": len(plan.ToDelete),
	})
}
