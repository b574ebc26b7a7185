package hostpricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/pricing"
)

// PeriodStore persists pricing periods. ApplyPlan must apply the whole plan
// in one write batch — transactionally where the store supports it — so a
// concurrent reader never observes a half-applied split.
type PeriodStore interface {
	ListByListing(ctx context.Context, listingID string) ([]pricing.Period, error)
	ApplyPlan(ctx context.Context, listingID string, plan pricing.Plan) error
}

// Service inserts manual price overrides while keeping a listing's periods
// non-overlapping. The reconciliation itself is pure; this service owns the
// snapshot read and the transactional apply.
type Service struct {
	Periods     PeriodStore
	Credentials policies.CredentialsPort
	Logger      *slog.Logger
}

type OverrideInput struct {
	ListingID         string
	HostUserID        string
	Admin             bool
	StartDate         time.Time
	EndDate           time.Time
	PriceMinor        *int64
	PercentAdjustment *int
	Label             string
}

func (s *Service) ApplyOverride(ctx context.Context, input OverrideInput) (pricing.Plan, error) {
	var zero pricing.Plan

	access, err := s.Credentials.ResolveListing(ctx, input.ListingID)
	if err != nil {
		return zero, fault.Wrap(fault.NotFound, "listing_not_found", "listing not found", err)
	}
	if !input.Admin && input.HostUserID != access.OwnerUserID {
		return zero, fault.New(fault.NotFound, "listing_not_found", "listing not found")
	}

	incoming, err := pricing.NewPeriod(
		uuid.NewString(),
		input.ListingID,
		input.StartDate,
		input.EndDate,
		input.PriceMinor,
		input.PercentAdjustment,
		input.Label,
	)
	if err != nil {
		return zero, fault.Wrap(fault.Validation, "invalid_period", "pricing period is invalid", err)
	}

	existing, err := s.Periods.ListByListing(ctx, input.ListingID)
	if err != nil {
		return zero, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "pricing store unavailable", err)
	}

	plan := pricing.Reconcile(existing, incoming, uuid.NewString)
	if err := s.Periods.ApplyPlan(ctx, input.ListingID, plan); err != nil {
		return zero, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "pricing store unavailable", err)
	}

	if s.Logger != nil {
		s.Logger.Info("pricing override applied",
			"listing_id", input.ListingID,
			"period_id", incoming.ID,
			"added", len(plan.ToAdd),
			"updated", len(plan.ToUpdate),
			"deleted", len(plan.ToDelete),
		)
	}
	return plan, nil
}
