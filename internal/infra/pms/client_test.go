package pms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
)

func testCreds() policies.PMSCredentials {
	return policies.PMSCredentials{AccountID: "acc-1", APIKey: "key-1"}
}

func testQuery() policies.AvailabilityQuery {
	return policies.AvailabilityQuery{
		PMSListingID: "pms-9",
		CheckIn:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
		Guests:       2,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil)
}

func TestCheckAvailabilityAvailableWithPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "acc-1", r.Header.Get("X-Account-ID"))
		assert.Equal(t, "pms-9", r.URL.Query().Get("listingId"))
		assert.Equal(t, "2025-07-10", r.URL.Query().Get("checkIn"))
		assert.Equal(t, "2", r.URL.Query().Get("guests"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available": true, "price": "480.00", "currency": "EUR"}`))
	})

	result, err := client.CheckAvailability(context.Background(), testCreds(), testQuery())

	require.NoError(t, err)
	assert.True(t, result.Available("pms-9"))
	price, ok := result.PriceByListing["pms-9"]
	require.True(t, ok)
	assert.Equal(t, int64(48000), price.Amount)
	assert.Equal(t, "EUR", price.Currency)
}

func TestCheckAvailabilityNormalizesRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available": false, "rejection": {"reason": "MIN_STAY", "threshold": 3}}`))
	})

	result, err := client.CheckAvailability(context.Background(), testCreds(), testQuery())

	require.NoError(t, err)
	assert.False(t, result.Available("pms-9"))
	info := result.RejectionByListing["pms-9"]
	assert.Equal(t, policies.RejectionMinStay, info.Code)
	assert.Equal(t, 3, info.Threshold)
}

func TestCheckAvailabilityUnknownReasonFallsBackToOther(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"available": false, "rejection": {"reason": "SOMETHING_NEW"}}`))
	})

	result, err := client.CheckAvailability(context.Background(), testCreds(), testQuery())

	require.NoError(t, err)
	assert.Equal(t, policies.RejectionOther, result.RejectionByListing["pms-9"].Code)
}

func TestCheckAvailabilityServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.CheckAvailability(context.Background(), testCreds(), testQuery())

	require.Error(t, err)
	assert.Equal(t, fault.ServiceUnavailable, fault.KindOf(err))
	assert.Equal(t, "pms_error", fault.CodeOf(err))
}

func TestFetchRatesParsesCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-07-10", r.URL.Query().Get("startDate"))
		w.Write([]byte(`{"days": [
			{"date": "2025-07-10", "price": "120.00", "minStay": 2, "available": true},
			{"date": "2025-07-11", "available": false}
		]}`))
	})

	table, err := client.FetchRates(context.Background(), testCreds(), "pms-9",
		time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	day, ok := table.Day("2025-07-10")
	require.True(t, ok)
	require.NotNil(t, day.Price)
	assert.Equal(t, int64(12000), *day.Price)
	require.NotNil(t, day.MinLengthOfStay)
	assert.Equal(t, 2, *day.MinLengthOfStay)

	closed, ok := table.Day("2025-07-11")
	require.True(t, ok)
	assert.Nil(t, closed.Price)
	assert.False(t, closed.Available)
}

func TestCreateReservationReturnsExternalID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/reservations", r.URL.Path)
		w.Write([]byte(`{"reservationId": "HW-777"}`))
	})

	id, err := client.CreateReservation(context.Background(), testCreds(), policies.ReservationRequest{
		PMSListingID: "pms-9",
		CheckIn:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
		Guests:       2,
		GuestName:    "Ann Smith",
		GuestEmail:   "ann@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "HW-777", id)
}

func TestCreateReservationRejectsEmptyID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.CreateReservation(context.Background(), testCreds(), policies.ReservationRequest{})

	require.Error(t, err)
	assert.Equal(t, "pms_bad_response", fault.CodeOf(err))
}

func TestCancelReservationHitsDeleteRoute(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.CancelReservation(context.Background(), testCreds(), "HW-777")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/reservations/HW-777", path)
}
