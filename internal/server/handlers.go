// Package server provides the HTTP surface of the chat relay.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rivachat/internal/core"
	"rivachat/internal/metrics"
	"rivachat/internal/relay"
)

// Handler holds the HTTP handlers.
type Handler struct {
	relay     *relay.Relay
	heartbeat time.Duration
}

// NewHandler creates a handler around the relay.
func NewHandler(r *relay.Relay, heartbeat time.Duration) *Handler {
	return &Handler{relay: r, heartbeat: heartbeat}
}

// Health handles GET /health. It never touches the upstream.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Chat handles POST /chat. Validation failures return a structured 400
// before any streaming starts; afterwards the response is a
// text/event-stream of one JSON object per event, ending with a single
// done or error event. Heartbeat frames keep the connection alive and
// carry no semantic meaning.
func (h *Handler) Chat(c echo.Context) error {
	var req core.ChatRequest
	if err := c.Bind(&req); err != nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	ctx := c.Request().Context()
	session, err := h.relay.Open(ctx, &req)
	if err != nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return handleError(c, err)
	}
	defer func() {
		_ = session.Close() //nolint:errcheck
	}()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	metrics.ActiveStreams.Inc()
	start := time.Now()
	defer func() {
		metrics.ActiveStreams.Dec()
		metrics.StreamDuration.Observe(time.Since(start).Seconds())
	}()

	// Pump session events into a channel so the write loop can
	// multiplex them with heartbeat ticks and caller disconnect.
	events := make(chan core.StreamEvent)
	go func() {
		defer close(events)
		for {
			ev, ok := session.Next()
			if !ok {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// The pump stopped: terminal event already delivered,
				// or it aborted because the caller went away.
				if ctx.Err() != nil {
					metrics.ChatRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
				} else {
					metrics.ChatRequests.WithLabelValues(metrics.OutcomeCompleted).Inc()
				}
				return nil
			}
			if err := writeEvent(resp, ev); err != nil {
				metrics.ChatRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
				return nil
			}
			switch ev.Type {
			case core.EventToken:
				metrics.TokensStreamed.Inc()
			case core.EventDone:
				metrics.ChatRequests.WithLabelValues(metrics.OutcomeCompleted).Inc()
				return nil
			case core.EventError:
				metrics.ChatRequests.WithLabelValues(metrics.OutcomeError).Inc()
				return nil
			}

		case <-ticker.C:
			hb := core.StreamEvent{
				Type:      core.EventHeartbeat,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}
			if err := writeEvent(resp, hb); err != nil {
				metrics.ChatRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
				return nil
			}

		case <-ctx.Done():
			// Caller disconnected: release the upstream session and
			// stop emitting. Nothing is reported to the (gone) caller.
			_ = session.Close() //nolint:errcheck
			metrics.ChatRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
			return nil
		}
	}
}

// writeEvent frames one event as `data: {json}\n\n` and flushes it.
func writeEvent(resp *echo.Response, ev core.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "data: %s\n\n", data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}

// handleError converts relay errors to structured HTTP responses.
func handleError(c echo.Context, err error) error {
	var relayErr *core.RelayError
	if errors.As(err, &relayErr) {
		return c.JSON(relayErr.HTTPStatusCode(), relayErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
