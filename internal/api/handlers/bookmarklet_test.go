package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/repository"
	"github.com/rankpilot/backend/internal/token"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSubmitError_LinkNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSubmitError(rec, repository.ErrLinkNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "link_not_found", body["error"])
}

func TestWriteSubmitError_RedeemRejections(t *testing.T) {
	cases := []struct {
		reason token.Reason
		status int
	}{
		{token.ReasonInvalidToken, http.StatusBadRequest},
		{token.ReasonExpiredToken, http.StatusBadRequest},
		{token.ReasonMismatch, http.StatusBadRequest},
		{token.ReasonUsageExceeded, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeSubmitError(rec, &token.RedeemError{Reason: tc.reason, UsageCount: 5, MaxUsage: 5})

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, string(tc.reason), body["error"])

			if tc.reason == token.ReasonUsageExceeded {
				assert.Equal(t, float64(5), body["current_usage"])
				assert.Equal(t, float64(5), body["max_usage"])
			}
		})
	}
}

func TestWriteSubmitError_QuotaExceeded(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSubmitError(rec, &quota.ExceededError{Resource: "submissions", Usage: 25, Limit: 25})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "quota_exceeded", body["error"])
	assert.Equal(t, float64(25), body["current_usage"])
	assert.Equal(t, float64(25), body["limit"])
	assert.NotEmpty(t, body["message"])
}

func TestWriteSubmitError_Unexpected(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSubmitError(rec, errors.New("pool exhausted"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "internal_error", body["error"])
	// Internal details never leak to the bookmarklet client
	assert.NotContains(t, rec.Body.String(), "pool exhausted")
}

func TestWriteRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRateLimited(rec, 42)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	body := decodeBody(t, rec)
	assert.Equal(t, "rate_limited", body["error"])
	assert.Equal(t, float64(42), body["retry_after"])
}
