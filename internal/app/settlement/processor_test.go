package settlement

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
	"staybook/internal/domain/booking"
	"staybook/internal/domain/eventlog"
	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type bookingRepoMock struct{ mock.Mock }

func (m *bookingRepoMock) Create(ctx context.Context, b *booking.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *bookingRepoMock) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *bookingRepoMock) BySessionID(ctx context.Context, sessionID string) (*booking.Booking, error) {
	args := m.Called(ctx, sessionID)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *bookingRepoMock) ConfirmPending(ctx context.Context, sessionID, paymentIntentID string, paidAt time.Time) (*booking.Booking, error) {
	args := m.Called(ctx, sessionID, paymentIntentID, paidAt)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *bookingRepoMock) SetExternalReservation(ctx context.Context, id booking.BookingID, externalReservationID string) error {
	return m.Called(ctx, id, externalReservationID).Error(0)
}

func (m *bookingRepoMock) MarkCancelled(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

type pmsMock struct{ mock.Mock }

func (m *pmsMock) CheckAvailability(ctx context.Context, creds policies.PMSCredentials, q policies.AvailabilityQuery) (policies.AvailabilityResult, error) {
	args := m.Called(ctx, creds, q)
	return args.Get(0).(policies.AvailabilityResult), args.Error(1)
}

func (m *pmsMock) FetchRates(ctx context.Context, creds policies.PMSCredentials, pmsListingID string, start, end time.Time) (rates.RateTable, error) {
	args := m.Called(ctx, creds, pmsListingID, start, end)
	if table := args.Get(0); table != nil {
		return table.(rates.RateTable), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *pmsMock) CreateReservation(ctx context.Context, creds policies.PMSCredentials, req policies.ReservationRequest) (string, error) {
	args := m.Called(ctx, creds, req)
	return args.String(0), args.Error(1)
}

func (m *pmsMock) CancelReservation(ctx context.Context, creds policies.PMSCredentials, externalReservationID string) error {
	return m.Called(ctx, creds, externalReservationID).Error(0)
}

type credentialsMock struct{ mock.Mock }

func (m *credentialsMock) ResolveListing(ctx context.Context, listingID string) (policies.ListingAccess, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(policies.ListingAccess), args.Error(1)
}

type sinkRecorder struct {
	entries []recordedEntry
}

type recordedEntry struct {
	Level    eventlog.Level
	Source   string
	Message  string
	Metadata map[string]string
}

func (s *sinkRecorder) Log(_ context.Context, level eventlog.Level, source, message string, metadata map[string]string) {
	s.entries = append(s.entries, recordedEntry{Level: level, Source: source, Message: message, Metadata: metadata})
}

type publisherRecorder struct {
	events []any
}

func (p *publisherRecorder) Publish(_ context.Context, _ string, event any) error {
	p.events = append(p.events, event)
	return nil
}

func confirmedFixture(t *testing.T) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	paid := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	return &booking.Booking{
		ID:               "bkg-1",
		ListingID:        "lst-1",
		GuestUserID:      "usr-1",
		Range:            dr,
		Nights:           4,
		Guests:           2,
		TotalPrice:       money.Must(48000, "EUR"),
		Guest:            booking.GuestContact{Name: "Ann Smith", Email: "ann@example.com"},
		Status:           booking.StatusConfirmed,
		PaymentSessionID: "cs_123",
		PaymentIntentID:  "pi_123",
		PaidAt:           &paid,
	}
}

func accessFixture() policies.ListingAccess {
	return policies.ListingAccess{
		ListingID:    "lst-1",
		PMSListingID: "pms-9",
		OwnerUserID:  "host-1",
		Currency:     "EUR",
		Credentials:  policies.PMSCredentials{AccountID: "acc-1", APIKey: "key-1"},
	}
}

func completedEvent() policies.WebhookEvent {
	return policies.WebhookEvent{
		ID:              "evt_1",
		Type:            policies.EventCheckoutCompleted,
		SessionID:       "cs_123",
		PaymentIntentID: "pi_123",
	}
}

func TestProcessEventIgnoresUnrelatedTypes(t *testing.T) {
	repo := &bookingRepoMock{}
	p := &Processor{Bookings: repo}

	err := p.ProcessEvent(context.Background(), policies.WebhookEvent{Type: "charge.refunded"})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "ConfirmPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventConfirmsAndCreatesReservation(t *testing.T) {
	repo := &bookingRepoMock{}
	pmsPort := &pmsMock{}
	creds := &credentialsMock{}
	sink := &sinkRecorder{}
	pub := &publisherRecorder{}

	b := confirmedFixture(t)
	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).Return(b, nil)
	creds.On("ResolveListing", mock.Anything, "lst-1").Return(accessFixture(), nil)
	pmsPort.On("CreateReservation", mock.Anything, accessFixture().Credentials, mock.Anything).Return("HW-777", nil)
	repo.On("SetExternalReservation", mock.Anything, booking.BookingID("bkg-1"), "HW-777").Return(nil)

	p := &Processor{Bookings: repo, PMS: pmsPort, Credentials: creds, Events: sink, Producer: pub}
	err := p.ProcessEvent(context.Background(), completedEvent())

	require.NoError(t, err)
	repo.AssertExpectations(t)
	pmsPort.AssertExpectations(t)
	require.Len(t, pub.events, 1)
	confirmedEvt, ok := pub.events[0].(booking.BookingConfirmed)
	require.True(t, ok)
	assert.Equal(t, booking.BookingID("bkg-1"), confirmedEvt.BookingID)
}

func TestProcessEventDuplicateDeliveryIsAcknowledged(t *testing.T) {
	repo := &bookingRepoMock{}
	pmsPort := &pmsMock{}
	creds := &credentialsMock{}

	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).
		Return(nil, booking.ErrAlreadyConfirmed)

	p := &Processor{Bookings: repo, PMS: pmsPort, Credentials: creds}
	err := p.ProcessEvent(context.Background(), completedEvent())

	require.NoError(t, err)
	pmsPort.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventMissingBookingIsLoggedAndAcknowledged(t *testing.T) {
	repo := &bookingRepoMock{}
	sink := &sinkRecorder{}

	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).
		Return(nil, booking.ErrBookingNotFound)

	p := &Processor{Bookings: repo, Events: sink}
	err := p.ProcessEvent(context.Background(), completedEvent())

	require.NoError(t, err)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, eventlog.LevelError, sink.entries[0].Level)
	assert.Equal(t, "cs_123", sink.entries[0].Metadata["session_id"])
}

func TestProcessEventStorageFailureAsksForRetry(t *testing.T) {
	repo := &bookingRepoMock{}
	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).
		Return(nil, errors.New("connection reset"))

	p := &Processor{Bookings: repo}
	err := p.ProcessEvent(context.Background(), completedEvent())

	require.Error(t, err)
	assert.Equal(t, fault.ServiceUnavailable, fault.KindOf(err))
}

func TestProcessEventPMSFailureKeepsBookingConfirmed(t *testing.T) {
	repo := &bookingRepoMock{}
	pmsPort := &pmsMock{}
	creds := &credentialsMock{}
	sink := &sinkRecorder{}
	pub := &publisherRecorder{}

	b := confirmedFixture(t)
	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).Return(b, nil)
	creds.On("ResolveListing", mock.Anything, "lst-1").Return(accessFixture(), nil)
	pmsPort.On("CreateReservation", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("pms is down"))

	p := &Processor{Bookings: repo, PMS: pmsPort, Credentials: creds, Events: sink, Producer: pub}
	err := p.ProcessEvent(context.Background(), completedEvent())

	// Payment capture is the point of no return: the delivery is acknowledged
	// and the booking stays confirmed with no external reservation id.
	require.NoError(t, err)
	repo.AssertNotCalled(t, "SetExternalReservation", mock.Anything, mock.Anything, mock.Anything)

	var syncFailures int
	for _, evt := range pub.events {
		if _, ok := evt.(booking.ReservationSyncFailed); ok {
			syncFailures++
		}
	}
	assert.Equal(t, 1, syncFailures)

	var errorLogs int
	for _, entry := range sink.entries {
		if entry.Level == eventlog.LevelError {
			errorLogs++
			assert.Equal(t, "bkg-1", entry.Metadata["booking_id"])
			assert.Equal(t, "cs_123", entry.Metadata["session_id"])
		}
	}
	assert.Equal(t, 1, errorLogs)
}

func TestProcessEventExternalIDWriteFailureIsLoggedOnly(t *testing.T) {
	repo := &bookingRepoMock{}
	pmsPort := &pmsMock{}
	creds := &credentialsMock{}
	sink := &sinkRecorder{}

	b := confirmedFixture(t)
	repo.On("ConfirmPending", mock.Anything, "cs_123", "pi_123", mock.Anything).Return(b, nil)
	creds.On("ResolveListing", mock.Anything, "lst-1").Return(accessFixture(), nil)
	pmsPort.On("CreateReservation", mock.Anything, mock.Anything, mock.Anything).Return("HW-777", nil)
	repo.On("SetExternalReservation", mock.Anything, booking.BookingID("bkg-1"), "HW-777").
		Return(errors.New("write failed"))

	p := &Processor{Bookings: repo, PMS: pmsPort, Credentials: creds, Events: sink}
	err := p.ProcessEvent(context.Background(), completedEvent())

	require.NoError(t, err)
	var found bool
	for _, entry := range sink.entries {
		if entry.Metadata["external_reservation_id"] == "HW-777" && entry.Level == eventlog.LevelError {
			found = true
		}
	}
	assert.True(t, found, "orphaned reservation id must be in the audit trail")
}
