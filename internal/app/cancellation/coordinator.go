package cancellation

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

// Publisher emits booking lifecycle events; best effort.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Actor is the caller identity, pre-authenticated upstream.
type Actor struct {
	UserID string
	Admin  bool
}

// Coordinator reverses a confirmed booking: refund first, then best-effort
// PMS cancel, then the local status flip. The refund is the financially
// authoritative action, so it runs before any irreversible local change and
// aborts the whole operation when it fails. A PMS cancel failure after a
// successful refund is a warning, never fatal.
type Coordinator struct {
	Bookings    booking.Repository
	Payments    policies.PaymentsPort
	PMS         policies.PMSPort
	Credentials policies.CredentialsPort
	Events      eventlog.Sink
	Producer    Publisher // optional
	Logger      *slog.Logger
	Now         func() time.Time
}

const source = "cancellation"

func (c *Coordinator) Cancel(ctx context.Context, id booking.BookingID, actor Actor) (*booking.Booking, error) {
	b, err := c.Bookings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return nil, fault.Wrap(fault.NotFound, "booking_not_found", "booking not found", err)
		}
		return nil, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "booking store unavailable", err)
	}

	access, err := c.Credentials.ResolveListing(ctx, b.ListingID)
	if err != nil {
		return nil, fault.Wrap(fault.ServiceUnavailable, "credentials_unavailable", "listing account unavailable", err)
	}
	if !actor.Admin && actor.UserID != access.OwnerUserID {
		// Unauthorized callers learn nothing about the booking's existence.
		return nil, fault.New(fault.NotFound, "booking_not_found", "booking not found")
	}
	if b.Status != booking.StatusConfirmed {
		return nil, fault.New(fault.Validation, "not_cancellable", "only confirmed bookings can be cancelled")
	}

	if b.PaymentIntentID != "" {
		if err := c.Payments.Refund(ctx, b.PaymentIntentID); err != nil {
			c.log(ctx, eventlog.LevelError, "refund failed", map[string]string{
				"booking_id":        string(b.ID),
				"payment_intent_id": b.PaymentIntentID,
				"error":             err.Error(),
			})
			return nil, fault.Wrap(fault.ServiceUnavailable, "refund_failed", "refund could not be issued", err)
		}
		c.log(ctx, eventlog.LevelInfo, "refund issued", map[string]string{
			"booking_id":        string(b.ID),
			"payment_intent_id": b.PaymentIntentID,
		})
	}

	if b.ExternalReservationID != "" {
		if err := c.PMS.CancelReservation(ctx, access.Credentials, b.ExternalReservationID); err != nil {
			// Compensating action: the refund already settled the money side.
			if c.Logger != nil {
				c.Logger.Warn("pms reservation cancel failed",
					"booking_id", b.ID,
					"external_reservation_id", b.ExternalReservationID,
					"error", err,
				)
			}
			c.log(ctx, eventlog.LevelWarning, "pms reservation cancel failed", map[string]string{
				"booking_id":              string(b.ID),
				"external_reservation_id": b.ExternalReservationID,
				"error":                   err.Error(),
			})
		} else {
			c.log(ctx, eventlog.LevelInfo, "pms reservation cancelled", map[string]string{
				"booking_id":              string(b.ID),
				"external_reservation_id": b.ExternalReservationID,
			})
		}
	}

	updated, err := c.Bookings.MarkCancelled(ctx, b.ID)
	if err != nil {
		// The refund went through; the status write must be retried by hand.
		c.log(ctx, eventlog.LevelError, "status update failed after refund", map[string]string{
			"booking_id": string(b.ID),
			"error":      err.Error(),
		})
		return nil, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "booking store unavailable", err)
	}

	if c.Logger != nil {
		c.Logger.Info("booking cancelled", "booking_id", updated.ID, "by", actor.UserID, "admin", actor.Admin)
	}
	c.publish(ctx, string(updated.ID), booking.BookingCancelled{
		BookingID: updated.ID,
		ListingID: updated.ListingID,
		Refunded:  b.PaymentIntentID != "",
		At:        c.now(),
	})
	return updated, nil
}

func (c *Coordinator) publish(ctx context.Context, key string, event any) {
	if c.Producer == nil {
		return
	}
	if err := c.Producer.Publish(ctx, key, event); err != nil && c.Logger != nil {
		c.Logger.Warn("booking event publish failed", "key", key, "error", err)
	}
}

func (c *Coordinator) log(ctx context.Context, level eventlog.Level, message string, metadata map[string]string) {
	if c.Events != nil {
		c.Events.Log(ctx, level, source, message, metadata)
	}
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}
