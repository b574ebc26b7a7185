package availability

import (
	"context"
	"fmt"
	"log/slog"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/daterange"
)

// Verifier confirms with the PMS that a listing is bookable for a date range
// and guest count. It is read-only; a PMS-reported "not available" is a
// normal result, not an error.
type Verifier struct {
	PMS         policies.PMSPort
	Credentials policies.CredentialsPort
	Logger      *slog.Logger
}

// Verify resolves the listing's PMS credentials and runs the availability
// probe. The resolved access is returned alongside the result so callers do
// not resolve twice within one request.
func (v *Verifier) Verify(ctx context.Context, listingID string, dr daterange.DateRange, guests int) (policies.AvailabilityResult, policies.ListingAccess, error) {
	var zero policies.AvailabilityResult
	access, err := v.Credentials.ResolveListing(ctx, listingID)
	if err != nil {
		return zero, policies.ListingAccess{}, fault.Wrap(fault.NotFound, "listing_not_found", "listing not found", err)
	}

	result, err := v.PMS.CheckAvailability(ctx, access.Credentials, policies.AvailabilityQuery{
		PMSListingID: access.PMSListingID,
		CheckIn:      dr.CheckIn,
		CheckOut:     dr.CheckOut,
		Guests:       guests,
	})
	if err != nil {
		if v.Logger != nil {
			v.Logger.Error("pms availability check failed", "listing_id", listingID, "error", err)
		}
		if fault.KindOf(err) != fault.Unknown {
			return zero, access, err
		}
		return zero, access, fault.Wrap(fault.ServiceUnavailable, "pms_unavailable", "availability service unavailable", err)
	}
	return result, access, nil
}

// ConflictError turns a normalized rejection into the guest-facing conflict
// error, carrying the coded reason and offending threshold.
func ConflictError(result policies.AvailabilityResult, pmsListingID string) error {
	info, ok := result.RejectionByListing[pmsListingID]
	if !ok {
		info = policies.RejectionInfo{Code: policies.RejectionOther}
	}
	return fault.New(fault.AvailabilityConflict, string("unavailable_"+info.Code), rejectionMessage(info))
}

func rejectionMessage(info policies.RejectionInfo) string {
	switch info.Code {
	case policies.RejectionMinStay:
		return fmt.Sprintf("stay is shorter than the minimum of %d nights", info.Threshold)
	case policies.RejectionGuestCount:
		return fmt.Sprintf("guest count exceeds the maximum of %d", info.Threshold)
	case policies.RejectionLeadTime:
		return fmt.Sprintf("check-in is closer than the required lead time of %d days", info.Threshold)
	case policies.RejectionArrivalWeekday:
		return "arrival is not allowed on that weekday"
	default:
		return "the listing is not available for the selected dates"
	}
}
