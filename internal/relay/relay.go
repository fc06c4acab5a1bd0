// Package relay implements the streaming relay: validate a chat
// request, open one upstream session, and map its output to an ordered
// event sequence ending in exactly one terminal event.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"rivachat/internal/core"
)

// Relay forwards chat requests to a single upstream backend. It holds
// no per-request state and is safe for concurrent use.
type Relay struct {
	upstream core.Upstream
	bounds   core.Bounds
	logger   *slog.Logger
}

// New creates a relay over the given upstream with the given bounds.
func New(upstream core.Upstream, bounds core.Bounds, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{upstream: upstream, bounds: bounds, logger: logger}
}

// Bounds returns the validation limits the relay enforces.
func (r *Relay) Bounds() core.Bounds {
	return r.bounds
}

// Open validates the request and opens a streaming session. A
// validation failure is returned synchronously, before any upstream
// call. Once validation passes, upstream failures (including failures
// to open the session) are reported in-stream as the session's single
// terminal error event, never as a returned error.
func (r *Relay) Open(ctx context.Context, req *core.ChatRequest) (*Session, error) {
	if err := req.Validate(r.bounds); err != nil {
		return nil, err
	}

	prepared := req.WithDefaults()
	r.logger.InfoContext(ctx, "opening upstream stream",
		"backend", r.upstream.Name(),
		"messages", len(prepared.Messages),
		"temperature", *prepared.Temperature,
		"max_tokens", *prepared.MaxTokens,
	)

	stream, err := r.upstream.StreamChat(ctx, prepared)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to open upstream stream",
			"backend", r.upstream.Name(), "error", err)
		return &Session{failure: err}, nil
	}

	return &Session{stream: stream}, nil
}

// Session is a lazy, finite, non-restartable sequence of stream
// events. The caller drives iteration with Next and must Close the
// session when done (or on caller disconnect) to release the upstream
// handle. Session is not safe for concurrent Next calls; Close may be
// called concurrently with a blocked Next.
type Session struct {
	stream  core.TokenStream
	failure error // set when the upstream session never opened
	done    bool
	tokens  int
}

// Next returns the next event in the sequence. The second return value
// is false once the terminal event has already been delivered. Token
// events preserve upstream arrival order; upstream EOF maps to a done
// event and any upstream error to an error event with a sanitized
// message. Exactly one terminal event is ever produced.
func (s *Session) Next() (core.StreamEvent, bool) {
	if s.done {
		return core.StreamEvent{}, false
	}

	if s.failure != nil {
		s.done = true
		return core.ErrorEvent(sanitize(s.failure)), true
	}

	text, err := s.stream.Recv()
	if err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			return core.DoneEvent(), true
		}
		return core.ErrorEvent(sanitize(err)), true
	}

	s.tokens++
	return core.TokenEvent(text), true
}

// Tokens returns the number of token events delivered so far.
func (s *Session) Tokens() int {
	return s.tokens
}

// Close releases the upstream session. Idempotent.
func (s *Session) Close() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Close()
}

// sanitize maps an upstream error to a client-safe message. Raw
// provider detail never reaches the caller.
func sanitize(err error) string {
	var relayErr *core.RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Public()
	}
	return core.NewUpstreamError(err.Error(), err).Public()
}

// Drain consumes the remainder of a session and returns all events in
// order. Used by non-streaming callers and tests; the session is closed
// before returning.
func Drain(s *Session) []core.StreamEvent {
	defer func() {
		_ = s.Close() //nolint:errcheck
	}()

	var events []core.StreamEvent
	for {
		ev, ok := s.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}
