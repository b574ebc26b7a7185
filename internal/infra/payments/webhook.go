package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
)

// Verifier authenticates processor webhooks. The processor signs each
// delivery with HMAC-SHA256 over "<timestamp>.<raw body>" and sends the
// result in the signature header as "t=<unix>,v1=<hex>". Anything that does
// not check out is fault.SignatureInvalid; the handler answers 400 and the
// processor retries with a fresh signature.
type Verifier struct {
	Secret    string
	Tolerance time.Duration // replay window, defaults to 5 minutes
	Now       func() time.Time
}

type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (v *Verifier) VerifyAndParse(rawBody []byte, signatureHeader string) (policies.WebhookEvent, error) {
	var zero policies.WebhookEvent

	timestamp, signature, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return zero, err
	}

	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now()
	}
	sent := time.Unix(timestamp, 0)
	if sent.Before(now.Add(-tolerance)) || sent.After(now.Add(tolerance)) {
		return zero, fault.New(fault.SignatureInvalid, "signature_expired", "webhook signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(v.Secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return zero, fault.New(fault.SignatureInvalid, "signature_invalid", "webhook signature does not match")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return zero, fault.Wrap(fault.SignatureInvalid, "payload_invalid", "webhook payload is not valid json", err)
	}
	return policies.WebhookEvent{
		ID:              envelope.ID,
		Type:            envelope.Type,
		SessionID:       envelope.Data.Object.ID,
		PaymentIntentID: envelope.Data.Object.PaymentIntent,
		Metadata:        envelope.Data.Object.Metadata,
	}, nil
}

func parseSignatureHeader(header string) (int64, []byte, error) {
	var (
		timestamp int64
		signature []byte
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fault.New(fault.SignatureInvalid, "signature_invalid", "webhook signature timestamp malformed")
			}
			timestamp = parsed
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, fault.New(fault.SignatureInvalid, "signature_invalid", "webhook signature malformed")
			}
			signature = decoded
		}
	}
	if timestamp == 0 || len(signature) == 0 {
		return 0, nil, fault.New(fault.SignatureInvalid, "signature_missing", "webhook signature header missing or incomplete")
	}
	return timestamp, signature, nil
}

var _ policies.WebhookVerifier = (*Verifier)(nil)
