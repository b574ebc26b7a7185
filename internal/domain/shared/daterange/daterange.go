package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

// DateKeyLayout is the ISO calendar-date form used to key nightly rates.
// Rates are keyed by calendar date, not by timestamp, so the quote math is
// timezone-agnostic.
const DateKeyLayout = "2006-01-02"

// DateRange represents a half-open interval [checkIn, checkOut).
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a timestamp as an ISO calendar-date string.
func DateKey(t time.Time) string {
	return Day(t).Format(DateKeyLayout)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts the nights in the half-open range; zero when the range is empty.
func (dr DateRange) Nights() int {
	if !dr.CheckOut.After(dr.CheckIn) {
		return 0
	}
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Days enumerates every night of the stay as an ISO date key, checkout excluded.
func (dr DateRange) Days() []string {
	nights := dr.Nights()
	if nights <= 0 {
		return nil
	}
	keys := make([]string, 0, nights)
	for d := Day(dr.CheckIn); d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateKeyLayout))
	}
	return keys
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return (dr.CheckIn.Before(other.CheckIn) || dr.CheckIn.Equal(other.CheckIn)) &&
		(dr.CheckOut.After(other.CheckOut) || dr.CheckOut.Equal(other.CheckOut))
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}
