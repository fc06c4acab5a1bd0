// Package core defines the data model, error taxonomy, and upstream
// contract for the chat relay.
package core

// Message roles accepted in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the incoming chat request. Temperature and
// MaxTokens are pointers so "absent" is distinguishable from zero;
// defaults are applied by WithDefaults after validation.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Request defaults applied when the optional fields are omitted.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500
)

// WithDefaults returns a shallow copy of the request with absent
// optional fields filled in. The caller's request is not mutated.
func (r *ChatRequest) WithDefaults() *ChatRequest {
	out := &ChatRequest{
		Messages:    r.Messages,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Stream:      r.Stream,
	}
	if out.Temperature == nil {
		t := DefaultTemperature
		out.Temperature = &t
	}
	if out.MaxTokens == nil {
		n := DefaultMaxTokens
		out.MaxTokens = &n
	}
	return out
}

// EventType tags a StreamEvent.
type EventType string

const (
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
	// EventHeartbeat is a transport keep-alive. It is not part of the
	// semantic event sequence and consumers must ignore it.
	EventHeartbeat EventType = "heartbeat"
)

// StreamEvent is one unit of relay output. Exactly one terminal event
// (done or error) ends every stream.
type StreamEvent struct {
	Type      EventType `json:"type"`
	Text      string    `json:"text,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// TokenEvent wraps one increment of generated text.
func TokenEvent(text string) StreamEvent {
	return StreamEvent{Type: EventToken, Text: text}
}

// DoneEvent signals clean completion of the stream.
func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}

// ErrorEvent carries a sanitized error message in-stream.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
