package checkout

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/availability"
	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/eventlog"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// Issuer opens a payment-processor checkout session for a verified stay.
// The booking row written here is a pending placeholder keyed by the session
// id: the payment is not captured yet, so nothing may promise a reservation.
type Issuer struct {
	Bookings    booking.Repository
	Verifier    *availability.Verifier
	Gate        *PriceIntegrityGate
	Payments    policies.PaymentsPort
	Idempotency IdempotencyStore // optional
	Events      eventlog.Sink
	Logger      *slog.Logger
	SuccessURL  string
	CancelURL   string
	Now         func() time.Time
}

type IssueInput struct {
	ListingID      string
	GuestUserID    string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	Currency       string
	ClientPrice    string // decimal major units, converted once at this boundary
	Guest          booking.GuestContact
	Note           string
	IdempotencyKey string
}

type IssueResult struct {
	RedirectURL string `json:"redirect_url"`
	SessionID   string `json:"session_id"`
}

func (i *Issuer) Issue(ctx context.Context, input IssueInput) (*IssueResult, error) {
	dr, err := daterange.New(input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, "invalid_dates", "checkout must be after checkin", err)
	}
	if input.Guests <= 0 {
		return nil, fault.New(fault.Validation, "invalid_guests", "guest count must be positive")
	}
	clientPrice, err := money.ParseMajor(input.ClientPrice, input.Currency)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, "invalid_price", "price must be a decimal amount", err)
	}

	if cached, ok, err := i.replay(ctx, input.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	result, access, err := i.Verifier.Verify(ctx, input.ListingID, dr, input.Guests)
	if err != nil {
		return nil, err
	}
	if !result.Available(access.PMSListingID) {
		return nil, availability.ConflictError(result, access.PMSListingID)
	}

	total, err := i.Gate.Verify(ctx, access, dr, result, clientPrice)
	if err != nil {
		return nil, err
	}

	session, err := i.Payments.CreateCheckoutSession(ctx, policies.CheckoutParams{
		Amount:        total,
		Description:   "Stay at listing " + input.ListingID,
		CustomerEmail: input.Guest.Email,
		Metadata: map[string]string{
			"listing_id":  input.ListingID,
			"guest_id":    input.GuestUserID,
			"check_in":    daterange.DateKey(dr.CheckIn),
			"check_out":   daterange.DateKey(dr.CheckOut),
			"guests":      strconv.Itoa(input.Guests),
			"currency":    total.Currency,
			"total_minor": strconv.FormatInt(total.Amount, 10),
			"guest_name":  input.Guest.Name,
			"guest_email": input.Guest.Email,
			"guest_phone": input.Guest.Phone,
			"note":        input.Note,
		},
		SuccessURL: i.SuccessURL,
		CancelURL:  i.CancelURL,
	})
	if err != nil {
		return nil, fault.Wrap(fault.ServiceUnavailable, "payments_unavailable", "payment service unavailable", err)
	}

	pending, err := booking.NewPending(booking.CreateParams{
		ID:               booking.BookingID(uuid.NewString()),
		ListingID:        input.ListingID,
		GuestUserID:      input.GuestUserID,
		Range:            dr,
		Guests:           input.Guests,
		TotalPrice:       total,
		GuestNote:        input.Note,
		Guest:            input.Guest,
		PaymentSessionID: session.SessionID,
		CreatedAt:        i.now(),
	})
	if err != nil {
		return nil, fault.Wrap(fault.Validation, "invalid_booking", "booking facts are invalid", err)
	}
	if err := i.Bookings.Create(ctx, pending); err != nil {
		// The session exists but the placeholder does not; the webhook will
		// log the orphaned session for reconciliation.
		if i.Events != nil {
			i.Events.Log(ctx, eventlog.LevelError, "checkout", "pending booking write failed after session creation", map[string]string{
				"listing_id": input.ListingID,
				"session_id": session.SessionID,
				"error":      err.Error(),
			})
		}
		return nil, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "could not start checkout", err)
	}

	if i.Logger != nil {
		i.Logger.Info("checkout session issued",
			"listing_id", input.ListingID,
			"booking_id", pending.ID,
			"session_id", session.SessionID,
			"total_minor", total.Amount,
		)
	}

	out := &IssueResult{RedirectURL: session.RedirectURL, SessionID: session.SessionID}
	i.remember(ctx, input.IdempotencyKey, out)
	return out, nil
}

func (i *Issuer) replay(ctx context.Context, key string) (*IssueResult, bool, error) {
	if i.Idempotency == nil || key == "" {
		return nil, false, nil
	}
	rec, found, err := i.Idempotency.Get(ctx, key)
	if err != nil {
		return nil, false, fault.Wrap(fault.ServiceUnavailable, "storage_unavailable", "could not start checkout", err)
	}
	if !found {
		return nil, false, nil
	}
	var out IssueResult
	if err := json.Unmarshal(rec.Payload, &out); err != nil {
		return nil, false, nil
	}
	return &out, true, nil
}

func (i *Issuer) remember(ctx context.Context, key string, out *IssueResult) {
	if i.Idempotency == nil || key == "" {
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := i.Idempotency.Save(ctx, IdempotencyRecord{Key: key, Payload: payload, CreatedAt: i.now()}); err != nil && i.Logger != nil {
		i.Logger.Warn("idempotency record save failed", "error", err)
	}
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now().UTC()
}
