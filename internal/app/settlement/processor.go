package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/eventlog"
)

// Publisher emits booking lifecycle events to the broker. Publishing is best
// effort everywhere in this package.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Processor is the settlement state machine. It consumes verified payment
// events and drives pending → confirmed, then synchronizes the reservation
// into the PMS.
//
// Payment capture is the point of no return: once the booking is confirmed
// locally, a PMS failure is logged for manual reconciliation and never rolls
// the confirmation back. The captured payment is never reversed because a
// downstream sync failed.
type Processor struct {
	Bookings    booking.Repository
	PMS         policies.PMSPort
	Credentials policies.CredentialsPort
	Events      eventlog.Sink
	Producer    Publisher // optional
	Logger      *slog.Logger
	Now         func() time.Time
}

const source = "settlement"

// ProcessEvent handles one verified webhook event. A nil return means the
// delivery must be acknowledged with 200 — including business dead ends like
// a missing booking, where redelivery cannot help. An error return is
// reserved for transient infrastructure failure where a processor retry is
// useful and safe.
func (p *Processor) ProcessEvent(ctx context.Context, evt policies.WebhookEvent) error {
	switch evt.Type {
	case policies.EventCheckoutCompleted, policies.EventAsyncPaymentSucceeded:
	default:
		// Unrelated events still get a 200, otherwise the processor keeps
		// redelivering them.
		return nil
	}

	if evt.SessionID == "" || evt.PaymentIntentID == "" {
		p.log(ctx, eventlog.LevelError, "payment event missing session or intent id", map[string]string{
			"event_id":   evt.ID,
			"event_type": evt.Type,
		})
		return nil
	}

	now := p.now()
	confirmed, err := p.Bookings.ConfirmPending(ctx, evt.SessionID, evt.PaymentIntentID, now)
	switch {
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		// Idempotency gate: a concurrent or repeated delivery already won.
		// At most one PMS reservation attempt ever happens.
		return nil
	case errors.Is(err, booking.ErrBookingNotFound):
		p.log(ctx, eventlog.LevelError, "no booking for payment session", map[string]string{
			"event_id":   evt.ID,
			"session_id": evt.SessionID,
		})
		return nil
	case err != nil:
		// The conditional write makes a retry safe here.
		return fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "booking store unavailable", err)
	}

	if p.Logger != nil {
		p.Logger.Info("booking confirmed",
			"booking_id", confirmed.ID,
			"session_id", evt.SessionID,
			"payment_intent_id", evt.PaymentIntentID,
		)
	}
	p.publish(ctx, string(confirmed.ID), booking.BookingConfirmed{
		BookingID:       confirmed.ID,
		ListingID:       confirmed.ListingID,
		SessionID:       confirmed.PaymentSessionID,
		PaymentIntentID: confirmed.PaymentIntentID,
		Total:           confirmed.TotalPrice,
		At:              now,
	})

	p.createReservation(ctx, confirmed)
	return nil
}

// createReservation pushes the confirmed booking into the PMS. Best effort:
// every failure path logs with enough context for manual reconciliation and
// leaves the booking confirmed with no external reservation id. There is no
// automatic retry — the PMS create call is not idempotent and a blind retry
// risks duplicate reservations.
func (p *Processor) createReservation(ctx context.Context, b *booking.Booking) {
	access, err := p.Credentials.ResolveListing(ctx, b.ListingID)
	if err != nil {
		p.reservationFailed(ctx, b, err)
		return
	}

	externalID, err := p.PMS.CreateReservation(ctx, access.Credentials, policies.ReservationRequest{
		PMSListingID: access.PMSListingID,
		CheckIn:      b.Range.CheckIn,
		CheckOut:     b.Range.CheckOut,
		Guests:       b.Guests,
		GuestName:    b.Guest.Name,
		GuestEmail:   b.Guest.Email,
		GuestPhone:   b.Guest.Phone,
		TotalPrice:   b.TotalPrice,
		Note:         b.GuestNote,
	})
	if err != nil {
		p.reservationFailed(ctx, b, err)
		return
	}

	if err := p.Bookings.SetExternalReservation(ctx, b.ID, externalID); err != nil {
		// The reservation exists in the PMS; only our pointer write failed.
		p.log(ctx, eventlog.LevelError, "external reservation id write failed", map[string]string{
			"booking_id":              string(b.ID),
			"session_id":              b.PaymentSessionID,
			"external_reservation_id": externalID,
			"error":                   err.Error(),
		})
		return
	}
	if p.Logger != nil {
		p.Logger.Info("pms reservation created", "booking_id", b.ID, "external_reservation_id", externalID)
	}
	p.log(ctx, eventlog.LevelInfo, "pms reservation created", map[string]string{
		"booking_id":              string(b.ID),
		"external_reservation_id": externalID,
	})
}

func (p *Processor) reservationFailed(ctx context.Context, b *booking.Booking, cause error) {
	if p.Logger != nil {
		p.Logger.Error("pms reservation creation failed",
			"booking_id", b.ID,
			"session_id", b.PaymentSessionID,
			"error", cause,
		)
	}
	p.log(ctx, eventlog.LevelError, "pms reservation creation failed", map[string]string{
		"booking_id": string(b.ID),
		"session_id": b.PaymentSessionID,
		"listing_id": b.ListingID,
		"error":      cause.Error(),
	})
	p.publish(ctx, string(b.ID), booking.ReservationSyncFailed{
		BookingID: b.ID,
		SessionID: b.PaymentSessionID,
		Reason:    cause.Error(),
		At:        p.now(),
	})
}

func (p *Processor) publish(ctx context.Context, key string, event any) {
	if p.Producer == nil {
		return
	}
	if err := p.Producer.Publish(ctx, key, event); err != nil && p.Logger != nil {
		p.Logger.Warn("booking event publish failed", "key", key, "error", err)
	}
}

func (p *Processor) log(ctx context.Context, level eventlog.Level, message string, metadata map[string]string) {
	if p.Events != nil {
		p.Events.Log(ctx, level, source, message, metadata)
	}
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
