// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ChatRequests.
const (
	OutcomeCompleted = "completed"
	OutcomeError     = "error"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

var (
	// ChatRequests counts finished /chat requests by outcome.
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rivachat",
		Name:      "chat_requests_total",
		Help:      "Finished chat requests by outcome.",
	}, []string{"outcome"})

	// TokensStreamed counts token events delivered to callers.
	TokensStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rivachat",
		Name:      "tokens_streamed_total",
		Help:      "Token events delivered to callers.",
	})

	// ActiveStreams tracks currently open chat streams.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rivachat",
		Name:      "active_streams",
		Help:      "Currently open chat streams.",
	})

	// StreamDuration observes how long chat streams stay open.
	StreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rivachat",
		Name:      "stream_duration_seconds",
		Help:      "Duration of chat streams from open to terminal event.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
