package hostpricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/pricing"
)

type periodStoreMock struct{ mock.Mock }

func (m *periodStoreMock) ListByListing(ctx context.Context, listingID string) ([]pricing.Period, error) {
	args := m.Called(ctx, listingID)
	if p := args.Get(0); p != nil {
		return p.([]pricing.Period), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *periodStoreMock) ApplyPlan(ctx context.Context, listingID string, plan pricing.Plan) error {
	return m.Called(ctx, listingID, plan).Error(0)
}

type credsStub struct {
	access policies.ListingAccess
	err    error
}

func (s credsStub) ResolveListing(context.Context, string) (policies.ListingAccess, error) {
	return s.access, s.err
}

func day(d int) time.Time {
	return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC)
}

func overrideInput() OverrideInput {
	price := int64(15000)
	return OverrideInput{
		ListingID:  "lst-1",
		HostUserID: "host-1",
		StartDate:  day(10),
		EndDate:    day(15),
		PriceMinor: &price,
		Label:      "august peak",
	}
}

func ownerAccess() policies.ListingAccess {
	return policies.ListingAccess{ListingID: "lst-1", OwnerUserID: "host-1", Currency: "EUR"}
}

func TestApplyOverrideSplitsContainingPeriod(t *testing.T) {
	store := &periodStoreMock{}
	price := int64(10000)
	existing := []pricing.Period{{
		ID:         "p-1",
		ListingID:  "lst-1",
		StartDate:  day(1),
		EndDate:    day(31),
		PriceMinor: &price,
	}}

	store.On("ListByListing", mock.Anything, "lst-1").Return(existing, nil)

	var applied pricing.Plan
	store.On("ApplyPlan", mock.Anything, "lst-1", mock.Anything).Run(func(args mock.Arguments) {
		applied = args.Get(2).(pricing.Plan)
	}).Return(nil)

	svc := &Service{Periods: store, Credentials: credsStub{access: ownerAccess()}}
	plan, err := svc.ApplyOverride(context.Background(), overrideInput())

	require.NoError(t, err)
	assert.Equal(t, plan, applied)

	// Incoming plus the cloned right fragment of the split.
	require.Len(t, plan.ToAdd, 2)
	require.Len(t, plan.ToUpdate, 1)
	assert.Empty(t, plan.ToDelete)

	left := plan.ToUpdate[0]
	assert.Equal(t, "p-1", left.ID)
	assert.Equal(t, day(9), left.EndDate)

	right := plan.ToAdd[1]
	assert.NotEqual(t, "p-1", right.ID)
	assert.Equal(t, day(16), right.StartDate)
	assert.Equal(t, day(31), right.EndDate)
	require.NotNil(t, right.PriceMinor)
	assert.Equal(t, int64(10000), *right.PriceMinor)
}

func TestApplyOverrideRejectsForeignListing(t *testing.T) {
	svc := &Service{Periods: &periodStoreMock{}, Credentials: credsStub{access: ownerAccess()}}

	input := overrideInput()
	input.HostUserID = "intruder"
	_, err := svc.ApplyOverride(context.Background(), input)

	require.Error(t, err)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestApplyOverrideAdminBypassesOwnership(t *testing.T) {
	store := &periodStoreMock{}
	store.On("ListByListing", mock.Anything, "lst-1").Return(nil, nil)
	store.On("ApplyPlan", mock.Anything, "lst-1", mock.Anything).Return(nil)

	svc := &Service{Periods: store, Credentials: credsStub{access: ownerAccess()}}

	input := overrideInput()
	input.HostUserID = "support-1"
	input.Admin = true
	_, err := svc.ApplyOverride(context.Background(), input)

	require.NoError(t, err)
}

func TestApplyOverrideRejectsInvalidPeriod(t *testing.T) {
	svc := &Service{Periods: &periodStoreMock{}, Credentials: credsStub{access: ownerAccess()}}

	input := overrideInput()
	input.PriceMinor = nil
	input.PercentAdjustment = nil
	_, err := svc.ApplyOverride(context.Background(), input)

	require.Error(t, err)
	assert.Equal(t, fault.Validation, fault.KindOf(err))
}

func TestApplyOverrideSurfacesStoreFailure(t *testing.T) {
	store := &periodStoreMock{}
	store.On("ListByListing", mock.Anything, "lst-1").Return(nil, errors.New("primary stepped down"))

	svc := &Service{Periods: store, Credentials: credsStub{access: ownerAccess()}}
	_, err := svc.ApplyOverride(context.Background(), overrideInput())

	require.Error(t, err)
	assert.Equal(t, fault.ServiceUnavailable, fault.KindOf(err))
}
