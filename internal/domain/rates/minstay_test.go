package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withMinStay(d time.Time, min int) RateDay {
	return RateDay{Date: d, MinLengthOfStay: &min, Available: true}
}

func TestMinimumNights(t *testing.T) {
	arrival := date(2025, 7, 1)
	table := NewRateTable([]RateDay{
		withMinStay(arrival, 3),
		withMinStay(date(2025, 7, 2), 7), // later nights must not matter
	})

	got := MinimumNights(table, "2025-07-01")
	if assert.NotNil(t, got) {
		assert.Equal(t, 3, *got)
	}
}

func TestMinimumNightsNoEntry(t *testing.T) {
	table := NewRateTable(nil)
	assert.Nil(t, MinimumNights(table, "2025-07-01"))
}

func TestMinimumNightsTrivialConstraint(t *testing.T) {
	// A constraint of 1 means "no restriction" and surfaces as nil.
	table := NewRateTable([]RateDay{withMinStay(date(2025, 7, 1), 1)})
	assert.Nil(t, MinimumNights(table, "2025-07-01"))

	table = NewRateTable([]RateDay{{Date: date(2025, 7, 1), Available: true}})
	assert.Nil(t, MinimumNights(table, "2025-07-01"))
}
