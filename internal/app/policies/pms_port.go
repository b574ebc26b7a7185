package policies

import (
	"context"
	"time"

	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/money"
)

// RejectionCode normalizes PMS-specific rejection reasons into a uniform
// shape the UI can render precisely.
type RejectionCode string

const (
	RejectionMinStay        RejectionCode = "min_stay"
	RejectionGuestCount     RejectionCode = "guest_count"
	RejectionLeadTime       RejectionCode = "lead_time"
	RejectionArrivalWeekday RejectionCode = "arrival_weekday"
	RejectionOther          RejectionCode = "other"
)

// RejectionInfo carries the coded reason plus the offending threshold, e.g.
// the minimum nights the PMS demanded.
type RejectionInfo struct {
	Code      RejectionCode `json:"code"`
	Threshold int           `json:"threshold,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// AvailabilityResult is the normalized outcome of a PMS availability check.
// "Not available" is data here, never an error.
type AvailabilityResult struct {
	AvailableListingIDs map[string]struct{}
	PriceByListing      map[string]money.Money
	RejectionByListing  map[string]RejectionInfo
}

// Available reports whether the given listing made it into the bookable set.
func (r AvailabilityResult) Available(listingID string) bool {
	_, ok := r.AvailableListingIDs[listingID]
	return ok
}

// AvailabilityQuery describes one listing/date/guest-count probe.
type AvailabilityQuery struct {
	PMSListingID string
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       int
}

// ReservationRequest carries the booking facts the PMS needs to materialize
// a reservation on its side.
type ReservationRequest struct {
	PMSListingID string
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       int
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	TotalPrice   money.Money
	Note         string
}

// PMSPort is the property-management-system contract consumed by the core.
// Credentials are an explicit parameter so tests can inject fakes without
// process-wide state. Transport failures surface as fault.ServiceUnavailable.
type PMSPort interface {
	CheckAvailability(ctx context.Context, creds PMSCredentials, q AvailabilityQuery) (AvailabilityResult, error)
	FetchRates(ctx context.Context, creds PMSCredentials, pmsListingID string, start, end time.Time) (rates.RateTable, error)
	CreateReservation(ctx context.Context, creds PMSCredentials, req ReservationRequest) (string, error)
	CancelReservation(ctx context.Context, creds PMSCredentials, externalReservationID string) error
}
