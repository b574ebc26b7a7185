package rates

import (
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// StayQuote is the derived price for a stay. It is never persisted; the
// settlement path recomputes it server-side before any money moves.
type StayQuote struct {
	Nights        int
	TotalPrice    money.Money
	PerNightPrice money.Money
	HasPricing    bool
}

// CalculateStayQuote sums nightly prices over the half-open stay range.
//
// When only part of the range carries a price, the missing nights are
// extrapolated at the average of the priced ones. That bias is deliberate:
// a gap in the rate feed must never silently undercharge a stay.
func CalculateStayQuote(dr daterange.DateRange, table RateTable, currency string) StayQuote {
	nights := dr.Nights()
	quote := StayQuote{Nights: nights}
	if nights == 0 {
		return quote
	}

	var sum int64
	pricedNights := int64(0)
	for _, key := range dr.Days() {
		day, ok := table.Day(key)
		if !ok || day.Price == nil {
			continue
		}
		sum += *day.Price
		pricedNights++
	}
	if pricedNights == 0 {
		return quote
	}

	// Full coverage degenerates to the exact sum; integer round-half-up
	// everywhere else.
	total := money.DivRoundHalfUp(sum*int64(nights), pricedNights)
	quote.TotalPrice = money.Money{Amount: total, Currency: currency}
	quote.PerNightPrice = money.Money{Amount: money.DivRoundHalfUp(total, int64(nights)), Currency: currency}
	quote.HasPricing = true
	return quote
}
