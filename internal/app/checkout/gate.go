package checkout

import (
	"context"
	"log/slog"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/eventlog"
	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// RateSource yields a rate table for a listing and window; the production
// implementation fronts the PMS with a short-lived cache.
type RateSource interface {
	Rates(ctx context.Context, creds policies.PMSCredentials, pmsListingID string, dr daterange.DateRange) (rates.RateTable, error)
}

// PriceIntegrityGate recomputes the authoritative price server-side at the
// moment a checkout session is requested. An earlier client-side quote is
// never trusted.
type PriceIntegrityGate struct {
	Rates  RateSource
	Events eventlog.Sink
	Logger *slog.Logger
}

// tolerancePercent is the allowed relative divergence between the
// server-computed and the client-submitted price. One percent absorbs benign
// client-side formatting drift without permitting meaningful manipulation.
const tolerancePercent = 1

// Verify returns the canonical server-side price or a PriceMismatch fault.
// A PMS-reported price for the listing/date pair wins; otherwise the stay
// quote over a freshly fetched rate table is used.
func (g *PriceIntegrityGate) Verify(ctx context.Context, access policies.ListingAccess, dr daterange.DateRange, availability policies.AvailabilityResult, clientPrice money.Money) (money.Money, error) {
	server, ok := availability.PriceByListing[access.PMSListingID]
	if !ok {
		table, err := g.Rates.Rates(ctx, access.Credentials, access.PMSListingID, dr)
		if err != nil {
			return money.Money{}, fault.Wrap(fault.ServiceUnavailable, "rates_unavailable", "rate service unavailable", err)
		}
		quote := rates.CalculateStayQuote(dr, table, access.Currency)
		if !quote.HasPricing {
			return money.Money{}, fault.New(fault.AvailabilityConflict, "unavailable_no_rates", "no pricing is published for the selected dates")
		}
		server = quote.TotalPrice
	}

	if server.Currency != clientPrice.Currency {
		return money.Money{}, fault.New(fault.PriceMismatch, "currency_mismatch", "submitted currency does not match the listing currency")
	}
	if exceedsTolerance(server.Amount, clientPrice.Amount) {
		g.logMismatch(ctx, access.ListingID, server, clientPrice)
		return money.Money{}, fault.New(fault.PriceMismatch, "price_mismatch", "submitted price no longer matches the current price")
	}
	return server, nil
}

// exceedsTolerance checks |server − client| / server > 1% in integer form.
func exceedsTolerance(server, client int64) bool {
	if server <= 0 {
		return client != server
	}
	diff := server - client
	if diff < 0 {
		diff = -diff
	}
	return diff*100 > server*int64(tolerancePercent)
}

func (g *PriceIntegrityGate) logMismatch(ctx context.Context, listingID string, server, client money.Money) {
	// Both values go to the audit trail for fraud and bug monitoring.
	if g.Events != nil {
		g.Events.Log(ctx, eventlog.LevelWarning, "checkout", "client price diverges from server price", map[string]string{
			"listing_id":   listingID,
			"server_price": server.Major(),
			"client_price": client.Major(),
			"currency":     server.Currency,
		})
	}
	if g.Logger != nil {
		g.Logger.Warn("price integrity gate tripped",
			"listing_id", listingID,
			"server_minor", server.Amount,
			"client_minor", client.Amount,
			"currency", server.Currency,
		)
	}
}
