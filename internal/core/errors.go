package core

import (
	"fmt"
	"net/http"
)

// ErrorType classifies a relay error.
type ErrorType string

const (
	// ErrorTypeValidation indicates a malformed or out-of-bounds request (400).
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeUpstreamAuth indicates the upstream rejected our credentials.
	ErrorTypeUpstreamAuth ErrorType = "upstream_auth_error"
	// ErrorTypeUpstreamQuota indicates throttling or model-access denial upstream.
	ErrorTypeUpstreamQuota ErrorType = "upstream_quota_error"
	// ErrorTypeUpstream indicates any other upstream failure (network, 5xx).
	ErrorTypeUpstream ErrorType = "upstream_error"
)

// Sanitized messages sent to callers for upstream failures. Raw
// provider detail stays on the wrapped error and is only logged.
const (
	msgUpstreamAuth  = "the AI service rejected the relay's credentials; check the backend configuration"
	msgUpstreamQuota = "the AI service is rate limiting or denying access to the model; try again later"
	msgUpstream      = "the AI service is unavailable; try again later"
)

// RelayError is the typed error for everything the relay can fail on.
type RelayError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// Err holds the original cause for logging; never sent to clients.
	Err error `json:"-"`
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps the error type to an HTTP status for failures
// surfaced before streaming begins.
func (e *RelayError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUpstreamAuth, ErrorTypeUpstreamQuota, ErrorTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON returns the client-facing error body.
func (e *RelayError) ToJSON() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// Public returns the sanitized message suitable for an in-stream error
// event. Validation messages are already client-safe; upstream kinds
// get a fixed message so provider detail never leaks.
func (e *RelayError) Public() string {
	switch e.Type {
	case ErrorTypeUpstreamAuth:
		return msgUpstreamAuth
	case ErrorTypeUpstreamQuota:
		return msgUpstreamQuota
	case ErrorTypeUpstream:
		return msgUpstream
	default:
		return e.Message
	}
}

// NewValidationError creates a validation error (surfaced pre-stream as 400).
func NewValidationError(message string) *RelayError {
	return &RelayError{Type: ErrorTypeValidation, Message: message}
}

// NewUpstreamAuthError creates an upstream authentication error.
func NewUpstreamAuthError(message string, err error) *RelayError {
	return &RelayError{Type: ErrorTypeUpstreamAuth, Message: message, Err: err}
}

// NewUpstreamQuotaError creates an upstream throttling/access error.
func NewUpstreamQuotaError(message string, err error) *RelayError {
	return &RelayError{Type: ErrorTypeUpstreamQuota, Message: message, Err: err}
}

// NewUpstreamError creates a generic upstream transport error.
func NewUpstreamError(message string, err error) *RelayError {
	return &RelayError{Type: ErrorTypeUpstream, Message: message, Err: err}
}

// ClassifyUpstreamStatus maps an upstream HTTP status code and response
// body to a RelayError. Used by HTTP-based backends before streaming.
func ClassifyUpstreamStatus(statusCode int, body []byte, err error) *RelayError {
	message := fmt.Sprintf("upstream returned status %d: %s", statusCode, string(body))
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewUpstreamAuthError(message, err)
	case statusCode == http.StatusTooManyRequests:
		return NewUpstreamQuotaError(message, err)
	default:
		return NewUpstreamError(message, err)
	}
}
