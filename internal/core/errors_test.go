package core

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayErrorHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  *RelayError
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUpstreamAuthError("denied", nil), http.StatusBadGateway},
		{NewUpstreamQuotaError("throttled", nil), http.StatusBadGateway},
		{NewUpstreamError("down", nil), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatusCode(), "type %s", tt.err.Type)
	}
}

func TestRelayErrorPublicSanitizes(t *testing.T) {
	secret := "api key sk-12345 rejected by provider at 10.0.0.1"

	for _, errType := range []func(string, error) *RelayError{
		NewUpstreamAuthError, NewUpstreamQuotaError, NewUpstreamError,
	} {
		relayErr := errType(secret, errors.New(secret))
		public := relayErr.Public()
		assert.NotContains(t, public, "sk-12345")
		assert.NotContains(t, public, "10.0.0.1")
		assert.NotEmpty(t, public)
	}

	// Validation messages are client-safe and pass through
	v := NewValidationError("max_tokens must be positive")
	assert.Equal(t, "max_tokens must be positive", v.Public())
}

func TestRelayErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	relayErr := NewUpstreamError("upstream invocation failed", cause)
	assert.ErrorIs(t, relayErr, cause)
	assert.Contains(t, relayErr.Error(), "connection refused")
}

func TestRelayErrorToJSON(t *testing.T) {
	body := NewValidationError("at least one message is required").ToJSON()
	inner, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeValidation, inner["type"])
	assert.Equal(t, "at least one message is required", inner["message"])
}

func TestClassifyUpstreamStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeUpstreamAuth},
		{http.StatusForbidden, ErrorTypeUpstreamAuth},
		{http.StatusTooManyRequests, ErrorTypeUpstreamQuota},
		{http.StatusBadRequest, ErrorTypeUpstream},
		{http.StatusInternalServerError, ErrorTypeUpstream},
		{http.StatusServiceUnavailable, ErrorTypeUpstream},
	}
	for _, tt := range tests {
		got := ClassifyUpstreamStatus(tt.status, []byte(`{"error":"detail"}`), nil)
		assert.Equal(t, tt.want, got.Type, "status %d", tt.status)
	}
}

func TestStreamEventTerminal(t *testing.T) {
	assert.False(t, TokenEvent("hi").Terminal())
	assert.True(t, DoneEvent().Terminal())
	assert.True(t, ErrorEvent("boom").Terminal())
	assert.False(t, StreamEvent{Type: EventHeartbeat}.Terminal())
}
