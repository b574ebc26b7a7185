package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidGuests         = errors.New("booking: guests count must be positive")
	ErrInvalidState          = errors.New("booking: invalid state transition")
	ErrPaymentIntentRequired = errors.New("booking: payment intent required for confirmation")
	ErrBookingNotFound       = errors.New("booking: not found")
	ErrAlreadyConfirmed      = errors.New("booking: already confirmed")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// GuestContact is the contact block forwarded to the PMS when the reservation
// is materialized there.
type GuestContact struct {
	Name  string
	Email string
	Phone string
}

// Booking is the persisted settlement entity. It is created as a pending
// placeholder when a checkout session opens, confirmed exactly once by the
// settlement webhook, and cancelled by the cancellation coordinator. Rows are
// never physically deleted.
type Booking struct {
	ID          BookingID
	ListingID   string
	GuestUserID string
	Range       daterange.DateRange
	Nights      int
	Guests      int
	TotalPrice  money.Money
	GuestNote   string
	Guest       GuestContact
	Status      Status

	// PaymentSessionID keys the row for the webhook lookup.
	PaymentSessionID string
	// PaymentIntentID is set by the settlement webhook; a confirmed booking
	// always has one.
	PaymentIntentID string
	// ExternalReservationID stays empty when the PMS write failed. That is a
	// logged condition, not an error state.
	ExternalReservationID string

	CreatedAt time.Time
	PaidAt    *time.Time
	UpdatedAt time.Time
}

// Repository persists bookings. ConfirmPending is the idempotency gate of the
// settlement pipeline: it must be a single conditional write
// (status=PENDING → CONFIRMED) so concurrent webhook deliveries cannot both
// pass it.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	BySessionID(ctx context.Context, sessionID string) (*Booking, error)
	// ConfirmPending atomically promotes a pending booking keyed by session id,
	// recording the payment intent and paid-at timestamp. It returns
	// ErrAlreadyConfirmed when the row exists but is no longer pending, and
	// ErrBookingNotFound when no row matches the session id.
	ConfirmPending(ctx context.Context, sessionID, paymentIntentID string, paidAt time.Time) (*Booking, error)
	SetExternalReservation(ctx context.Context, id BookingID, externalReservationID string) error
	MarkCancelled(ctx context.Context, id BookingID) (*Booking, error)
}

type CreateParams struct {
	ID               BookingID
	ListingID        string
	GuestUserID      string
	Range            daterange.DateRange
	Guests           int
	TotalPrice       money.Money
	GuestNote        string
	Guest            GuestContact
	PaymentSessionID string
	CreatedAt        time.Time
}

// NewPending builds the placeholder row written at checkout-session-issue
// time. The row carries every fact needed to later materialize the PMS
// reservation, because the webhook is the only other writer.
func NewPending(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestUserID == "" {
		return nil, errors.New("booking: guest id required")
	}
	if params.PaymentSessionID == "" {
		return nil, errors.New("booking: payment session id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	return &Booking{
		ID:               params.ID,
		ListingID:        params.ListingID,
		GuestUserID:      params.GuestUserID,
		Range:            params.Range,
		Nights:           params.Range.Nights(),
		Guests:           params.Guests,
		TotalPrice:       params.TotalPrice,
		GuestNote:        params.GuestNote,
		Guest:            params.Guest,
		Status:           StatusPending,
		PaymentSessionID: params.PaymentSessionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Confirm transitions pending → confirmed. The persistent gate lives in the
// repository; this method keeps in-memory aggregates honest under tests.
func (b *Booking) Confirm(paymentIntentID string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if paymentIntentID == "" {
		return ErrPaymentIntentRequired
	}
	paidAt := now.UTC()
	b.Status = StatusConfirmed
	b.PaymentIntentID = paymentIntentID
	b.PaidAt = &paidAt
	b.UpdatedAt = paidAt
	return nil
}

// Cancel transitions confirmed → cancelled.
func (b *Booking) Cancel(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	return nil
}

// AttachExternalReservation records the PMS-side reservation id.
func (b *Booking) AttachExternalReservation(id string, now time.Time) {
	b.ExternalReservationID = id
	b.UpdatedAt = now.UTC()
}
