package ginserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"staybook/internal/app/fault"
)

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		kind fault.Kind
		want int
	}{
		{fault.Validation, http.StatusBadRequest},
		{fault.SignatureInvalid, http.StatusBadRequest},
		{fault.NotFound, http.StatusNotFound},
		{fault.AvailabilityConflict, http.StatusConflict},
		{fault.PriceMismatch, http.StatusConflict},
		{fault.ServiceUnavailable, http.StatusServiceUnavailable},
		{fault.Unknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.kind))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, fault.Wrap(fault.ServiceUnavailable, "pms_unavailable", "availability service unavailable",
		assert.AnError))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "pms_unavailable")
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestCallerIdentity(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := callerIdentity(c)
	assert.False(t, ok)

	c.Request.Header.Set("X-User-ID", "usr-1")
	id, ok := callerIdentity(c)
	assert.True(t, ok)
	assert.Equal(t, "usr-1", id.UserID)
	assert.False(t, id.Admin)

	c.Request.Header.Set("X-User-Role", "admin")
	id, _ = callerIdentity(c)
	assert.True(t, id.Admin)
}

func TestRequireIdentityAnswers401(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	_, ok := requireIdentity(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
