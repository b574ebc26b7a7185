package rates

import "staybook/internal/domain/shared/daterange"

// MinimumNights reads the minimum-stay constraint anchored to the arrival
// date. The rest of the range does not matter: in this domain the constraint
// binds to check-in. Nil means no restriction; a published constraint of 1 is
// equivalent to none and is also reported as nil.
func MinimumNights(table RateTable, checkIn string) *int {
	day, ok := table.Day(checkIn)
	if !ok || day.MinLengthOfStay == nil {
		return nil
	}
	if *day.MinLengthOfStay <= 1 {
		return nil
	}
	n := *day.MinLengthOfStay
	return &n
}

// MinimumNightsAt is MinimumNights keyed by a time value.
func MinimumNightsAt(table RateTable, checkIn daterange.DateRange) *int {
	return MinimumNights(table, daterange.DateKey(checkIn.CheckIn))
}
