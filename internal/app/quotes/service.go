package quotes

import (
	"context"
	"time"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/daterange"
)

// RateSource yields a rate table for a listing and window.
type RateSource interface {
	Rates(ctx context.Context, creds policies.PMSCredentials, pmsListingID string, dr daterange.DateRange) (rates.RateTable, error)
}

// Service renders stay quotes for the booking UI. Quotes here are advisory:
// the settlement path re-verifies everything through the integrity gate.
type Service struct {
	Rates       RateSource
	Credentials policies.CredentialsPort
}

type QuoteView struct {
	Nights        int    `json:"nights"`
	TotalMinor    int64  `json:"total_minor"`
	PerNightMinor int64  `json:"per_night_minor"`
	Currency      string `json:"currency"`
	HasPricing    bool   `json:"has_pricing"`
	MinNights     *int   `json:"min_nights,omitempty"`
}

func (s *Service) StayQuote(ctx context.Context, listingID string, checkIn, checkOut time.Time) (QuoteView, error) {
	var zero QuoteView
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return zero, fault.Wrap(fault.Validation, "invalid_dates", "checkout must be after checkin", err)
	}

	access, err := s.Credentials.ResolveListing(ctx, listingID)
	if err != nil {
		return zero, fault.Wrap(fault.NotFound, "listing_not_found", "listing not found", err)
	}

	table, err := s.Rates.Rates(ctx, access.Credentials, access.PMSListingID, dr)
	if err != nil {
		return zero, fault.Wrap(fault.ServiceUnavailable, "rates_unavailable", "rate service unavailable", err)
	}

	quote := rates.CalculateStayQuote(dr, table, access.Currency)
	return QuoteView{
		Nights:        quote.Nights,
		TotalMinor:    quote.TotalPrice.Amount,
		PerNightMinor: quote.PerNightPrice.Amount,
		Currency:      access.Currency,
		HasPricing:    quote.HasPricing,
		MinNights:     rates.MinimumNights(table, daterange.DateKey(dr.CheckIn)),
	}, nil
}
