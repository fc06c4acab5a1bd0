package core

import (
	"fmt"
	"strings"
)

// Bounds holds the configurable validation limits for incoming chat
// requests. The message count and content length ceilings double as the
// cap on how much conversation history is ever sent upstream.
type Bounds struct {
	TemperatureMin  float64
	TemperatureMax  float64
	MaxTokensLimit  int
	MaxMessages     int
	MaxContentChars int
}

// DefaultBounds mirrors the limits the hosted Claude models accept.
func DefaultBounds() Bounds {
	return Bounds{
		TemperatureMin:  0.0,
		TemperatureMax:  1.0,
		MaxTokensLimit:  4096,
		MaxMessages:     50,
		MaxContentChars: 32000,
	}
}

// Validate checks the request against the given bounds. It returns a
// *RelayError of type validation_error on the first violation found.
// Validation runs before any upstream call is made.
func (r *ChatRequest) Validate(b Bounds) error {
	if len(r.Messages) == 0 {
		return NewValidationError("at least one message is required")
	}
	if b.MaxMessages > 0 && len(r.Messages) > b.MaxMessages {
		return NewValidationError(fmt.Sprintf("too many messages: %d exceeds the limit of %d", len(r.Messages), b.MaxMessages))
	}

	hasUser := false
	for i, msg := range r.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return NewValidationError(fmt.Sprintf("messages[%d]: invalid role %q", i, msg.Role))
		}
		if strings.TrimSpace(msg.Content) == "" {
			return NewValidationError(fmt.Sprintf("messages[%d]: content must not be empty", i))
		}
		if b.MaxContentChars > 0 && len(msg.Content) > b.MaxContentChars {
			return NewValidationError(fmt.Sprintf("messages[%d]: content exceeds %d characters", i, b.MaxContentChars))
		}
		if msg.Role == RoleUser {
			hasUser = true
		}
	}
	if !hasUser {
		return NewValidationError("at least one user message is required")
	}

	if r.Temperature != nil {
		if *r.Temperature < b.TemperatureMin || *r.Temperature > b.TemperatureMax {
			return NewValidationError(fmt.Sprintf("temperature %g is outside the allowed range [%g, %g]", *r.Temperature, b.TemperatureMin, b.TemperatureMax))
		}
	}
	if r.MaxTokens != nil {
		if *r.MaxTokens <= 0 {
			return NewValidationError("max_tokens must be positive")
		}
		if b.MaxTokensLimit > 0 && *r.MaxTokens > b.MaxTokensLimit {
			return NewValidationError(fmt.Sprintf("max_tokens %d exceeds the limit of %d", *r.MaxTokens, b.MaxTokensLimit))
		}
	}

	return nil
}
