package rates

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

// RateDay is one calendar day of pricing facts for a listing, as reported by
// the property-management system. A nil Price means the PMS has no rate for
// that day; a nil MinLengthOfStay means no arrival constraint is published.
type RateDay struct {
	Date            time.Time
	Price           *int64 // minor units
	MinLengthOfStay *int
	Available       bool
}

// RateTable is a per-request snapshot of nightly facts keyed by ISO calendar
// date. It is never persisted.
type RateTable map[string]RateDay

// NewRateTable indexes a slice of rate days by their ISO date key.
func NewRateTable(days []RateDay) RateTable {
	table := make(RateTable, len(days))
	for _, day := range days {
		table[daterange.DateKey(day.Date)] = day
	}
	return table
}

// Day looks up the rate facts for a calendar day.
func (t RateTable) Day(key string) (RateDay, bool) {
	day, ok := t[key]
	return day, ok
}
