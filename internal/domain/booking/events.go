package booking

import (
	"time"

	"staybook/internal/domain/shared/money"
)

// Lifecycle events published (best effort) to the broker so downstream
// consumers — notifications, reporting, reconciliation tooling — can react
// without polling the bookings collection.

type BookingConfirmed struct {
	BookingID       BookingID   `json:"booking_id"`
	ListingID       string      `json:"listing_id"`
	SessionID       string      `json:"session_id"`
	PaymentIntentID string      `json:"payment_intent_id"`
	Total           money.Money `json:"total"`
	At              time.Time   `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	Refunded  bool      `json:"refunded"`
	At        time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

// ReservationSyncFailed marks a confirmed booking whose PMS write failed and
// which therefore needs manual reconciliation.
type ReservationSyncFailed struct {
	BookingID BookingID `json:"booking_id"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e ReservationSyncFailed) EventName() string     { return "booking.reservation_sync_failed" }
func (e ReservationSyncFailed) AggregateID() string   { return string(e.BookingID) }
func (e ReservationSyncFailed) OccurredAt() time.Time { return e.At }
