package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// Payment processor webhook event types the settlement pipeline reacts to.
// Everything else is acknowledged and ignored.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// CheckoutParams opens a hosted checkout session. Metadata carries every fact
// needed to later materialize a booking; the processor echoes it back in the
// webhook.
type CheckoutParams struct {
	Amount        money.Money
	Description   string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the processor's answer: where to send the guest and the
// session id the pending booking row is keyed by.
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// WebhookEvent is a verified, parsed processor event.
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
}

// PaymentsPort is the payment processor contract consumed by the core.
type PaymentsPort interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) error
}

// WebhookVerifier checks the processor signature over the raw payload and
// parses the event. A bad signature is a trust-boundary failure
// (fault.SignatureInvalid), not a business outcome.
type WebhookVerifier interface {
	VerifyAndParse(rawBody []byte, signatureHeader string) (WebhookEvent, error)
}
