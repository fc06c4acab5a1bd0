package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func validRequest() *ChatRequest {
	return &ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant."},
			{Role: RoleUser, Content: "Hello"},
		},
		Temperature: floatPtr(0.2),
		MaxTokens:   intPtr(500),
		Stream:      true,
	}
}

func TestValidate(t *testing.T) {
	bounds := DefaultBounds()

	tests := []struct {
		name    string
		mutate  func(*ChatRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			mutate: func(r *ChatRequest) {},
		},
		{
			name:   "optional fields absent",
			mutate: func(r *ChatRequest) { r.Temperature = nil; r.MaxTokens = nil },
		},
		{
			name:    "empty messages",
			mutate:  func(r *ChatRequest) { r.Messages = nil },
			wantErr: "at least one message is required",
		},
		{
			name:    "temperature below range",
			mutate:  func(r *ChatRequest) { r.Temperature = floatPtr(-1) },
			wantErr: "temperature -1 is outside the allowed range [0, 1]",
		},
		{
			name:    "temperature above range",
			mutate:  func(r *ChatRequest) { r.Temperature = floatPtr(5) },
			wantErr: "temperature 5 is outside the allowed range [0, 1]",
		},
		{
			name:   "temperature at the bounds",
			mutate: func(r *ChatRequest) { r.Temperature = floatPtr(1.0) },
		},
		{
			name:    "zero max_tokens",
			mutate:  func(r *ChatRequest) { r.MaxTokens = intPtr(0) },
			wantErr: "max_tokens must be positive",
		},
		{
			name:    "negative max_tokens",
			mutate:  func(r *ChatRequest) { r.MaxTokens = intPtr(-10) },
			wantErr: "max_tokens must be positive",
		},
		{
			name:    "max_tokens above ceiling",
			mutate:  func(r *ChatRequest) { r.MaxTokens = intPtr(5000) },
			wantErr: "max_tokens 5000 exceeds the limit of 4096",
		},
		{
			name:    "invalid role",
			mutate:  func(r *ChatRequest) { r.Messages[1].Role = "robot" },
			wantErr: `messages[1]: invalid role "robot"`,
		},
		{
			name:    "blank content",
			mutate:  func(r *ChatRequest) { r.Messages[1].Content = "   " },
			wantErr: "messages[1]: content must not be empty",
		},
		{
			name:    "content over the length limit",
			mutate:  func(r *ChatRequest) { r.Messages[1].Content = strings.Repeat("a", 32001) },
			wantErr: "messages[1]: content exceeds 32000 characters",
		},
		{
			name: "no user message",
			mutate: func(r *ChatRequest) {
				r.Messages = []Message{{Role: RoleAssistant, Content: "Hi there"}}
			},
			wantErr: "at least one user message is required",
		},
		{
			name: "too many messages",
			mutate: func(r *ChatRequest) {
				msgs := make([]Message, 51)
				for i := range msgs {
					msgs[i] = Message{Role: RoleUser, Content: "hi"}
				}
				r.Messages = msgs
			},
			wantErr: "too many messages: 51 exceeds the limit of 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate(bounds)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var relayErr *RelayError
			require.ErrorAs(t, err, &relayErr)
			assert.Equal(t, ErrorTypeValidation, relayErr.Type)
			assert.Equal(t, tt.wantErr, relayErr.Message)
		})
	}
}

func TestValidateCustomBounds(t *testing.T) {
	bounds := Bounds{
		TemperatureMin:  0,
		TemperatureMax:  2,
		MaxTokensLimit:  100,
		MaxMessages:     2,
		MaxContentChars: 10,
	}

	req := &ChatRequest{
		Messages:    []Message{{Role: RoleUser, Content: "short"}},
		Temperature: floatPtr(1.5),
		MaxTokens:   intPtr(100),
	}
	assert.NoError(t, req.Validate(bounds))

	req.MaxTokens = intPtr(101)
	err := req.Validate(bounds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the limit of 100")
}

func TestWithDefaults(t *testing.T) {
	req := &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "Hello"}},
	}

	out := req.WithDefaults()
	require.NotNil(t, out.Temperature)
	require.NotNil(t, out.MaxTokens)
	assert.Equal(t, DefaultTemperature, *out.Temperature)
	assert.Equal(t, DefaultMaxTokens, *out.MaxTokens)

	// Caller's request is not mutated
	assert.Nil(t, req.Temperature)
	assert.Nil(t, req.MaxTokens)

	// Explicit values survive
	req.Temperature = floatPtr(0.9)
	req.MaxTokens = intPtr(42)
	out = req.WithDefaults()
	assert.Equal(t, 0.9, *out.Temperature)
	assert.Equal(t, 42, *out.MaxTokens)
}
