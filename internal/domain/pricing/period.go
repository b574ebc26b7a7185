package pricing

import (
	"errors"
	"time"

	"staybook/internal/domain/shared/daterange"
)

var (
	ErrInvalidPeriod = errors.New("pricing: period end must not precede start")
	ErrNoAdjustment  = errors.New("pricing: period needs a price or a percent adjustment")
)

// Period is a manual price override for a listing over an inclusive day range.
// Either PriceMinor or PercentAdjustment is set, never both.
type Period struct {
	ID                string
	ListingID         string
	StartDate         time.Time // inclusive day
	EndDate           time.Time // inclusive day
	PriceMinor        *int64
	PercentAdjustment *int
	Label             string
}

// NewPeriod normalizes both ends to day boundaries and validates the interval.
func NewPeriod(id, listingID string, start, end time.Time, priceMinor *int64, percent *int, label string) (Period, error) {
	p := Period{
		ID:                id,
		ListingID:         listingID,
		StartDate:         daterange.Day(start),
		EndDate:           daterange.Day(end),
		PriceMinor:        priceMinor,
		PercentAdjustment: percent,
		Label:             label,
	}
	if p.EndDate.Before(p.StartDate) {
		return Period{}, ErrInvalidPeriod
	}
	if p.PriceMinor == nil && p.PercentAdjustment == nil {
		return Period{}, ErrNoAdjustment
	}
	return p, nil
}

// cloneAdjustment copies the price/label facts of the receiver onto a fresh
// interval; used when an existing period is split around an incoming one.
func (p Period) cloneAdjustment(id string, start, end time.Time) Period {
	clone := p
	clone.ID = id
	clone.StartDate = start
	clone.EndDate = end
	if p.PriceMinor != nil {
		v := *p.PriceMinor
		clone.PriceMinor = &v
	}
	if p.PercentAdjustment != nil {
		v := *p.PercentAdjustment
		clone.PercentAdjustment = &v
	}
	return clone
}

func (p Period) overlaps(other Period) bool {
	return !p.EndDate.Before(other.StartDate) && !p.StartDate.After(other.EndDate)
}

func (p Period) contains(other Period) bool {
	return !p.StartDate.After(other.StartDate) && !p.EndDate.Before(other.EndDate)
}

func (p Period) strictlyContains(other Period) bool {
	return p.StartDate.Before(other.StartDate) && p.EndDate.After(other.EndDate)
}
