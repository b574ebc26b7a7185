package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsEmptyRange(t *testing.T) {
	_, err := New(date(2025, 7, 1), date(2025, 7, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(date(2025, 7, 5), date(2025, 7, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNightsAndDays(t *testing.T) {
	dr, err := New(date(2025, 7, 1), date(2025, 7, 5))
	require.NoError(t, err)

	assert.Equal(t, 4, dr.Nights())
	assert.Equal(t, []string{"2025-07-01", "2025-07-02", "2025-07-03", "2025-07-04"}, dr.Days())
}

func TestDayNormalizesTimestamps(t *testing.T) {
	// A late-evening timestamp still belongs to its calendar day.
	ts := time.Date(2025, 7, 1, 23, 30, 0, 0, time.UTC)
	dr, err := New(ts, time.Date(2025, 7, 3, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, dr.Nights())
	assert.Equal(t, "2025-07-01", DateKey(ts))
}

func TestOverlaps(t *testing.T) {
	a, _ := New(date(2025, 7, 1), date(2025, 7, 5))
	b, _ := New(date(2025, 7, 4), date(2025, 7, 8))
	c, _ := New(date(2025, 7, 5), date(2025, 7, 8))

	assert.True(t, a.Overlaps(b))
	// Half-open ranges: checkout day equals next checkin day without overlap.
	assert.False(t, a.Overlaps(c))
}
