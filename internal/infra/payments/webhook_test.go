package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
)

const testSecret = "whsec_test"

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, secret string, ts int64, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newVerifier() *Verifier {
	return &Verifier{Secret: testSecret, Now: func() time.Time { return testNow }}
}

func TestVerifyAndParseAcceptsSignedEvent(t *testing.T) {
	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_123",
			"payment_intent": "pi_123",
			"metadata": {"listing_id": "lst-1"}
		}}
	}`)
	header := sign(t, testSecret, testNow.Unix(), body)

	event, err := newVerifier().VerifyAndParse(body, header)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, policies.EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_123", event.SessionID)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
	assert.Equal(t, "lst-1", event.Metadata["listing_id"])
}

func TestVerifyAndParseRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := sign(t, "whsec_other", testNow.Unix(), body)

	_, err := newVerifier().VerifyAndParse(body, header)

	require.Error(t, err)
	assert.Equal(t, fault.SignatureInvalid, fault.KindOf(err))
	assert.Equal(t, "signature_invalid", fault.CodeOf(err))
}

func TestVerifyAndParseRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := sign(t, testSecret, testNow.Unix(), body)
	tampered := []byte(`{"id":"evt_1","type":"checkout.session.async_payment_succeeded"}`)

	_, err := newVerifier().VerifyAndParse(tampered, header)

	require.Error(t, err)
	assert.Equal(t, fault.SignatureInvalid, fault.KindOf(err))
}

func TestVerifyAndParseRejectsStaleTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	stale := testNow.Add(-10 * time.Minute).Unix()
	header := sign(t, testSecret, stale, body)

	_, err := newVerifier().VerifyAndParse(body, header)

	require.Error(t, err)
	assert.Equal(t, "signature_expired", fault.CodeOf(err))
}

func TestVerifyAndParseRejectsMissingHeader(t *testing.T) {
	_, err := newVerifier().VerifyAndParse([]byte(`{}`), "")

	require.Error(t, err)
	assert.Equal(t, fault.SignatureInvalid, fault.KindOf(err))
	assert.Equal(t, "signature_missing", fault.CodeOf(err))
}

func TestVerifyAndParseRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{
		"t=abc,v1=00",
		fmt.Sprintf("t=%d,v1=zzzz", testNow.Unix()),
		"v1=00",
		fmt.Sprintf("t=%d", testNow.Unix()),
	} {
		_, err := newVerifier().VerifyAndParse([]byte(`{}`), header)
		require.Error(t, err, "header %q must be rejected", header)
		assert.Equal(t, fault.SignatureInvalid, fault.KindOf(err))
	}
}

func TestVerifyAndParseRejectsInvalidJSON(t *testing.T) {
	body := []byte(`not json`)
	header := sign(t, testSecret, testNow.Unix(), body)

	_, err := newVerifier().VerifyAndParse(body, header)

	require.Error(t, err)
	assert.Equal(t, "payload_invalid", fault.CodeOf(err))
}
