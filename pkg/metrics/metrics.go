// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMRequestDuration tracks extraction and clarification call latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "operation", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// EventsPublished tracks order events written to the stream.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_events_published_total",
			Help: "Order events published",
		},
		[]string{"type", "status"},
	)

	// TurnsTotal tracks completed turns by the stage the session rests in.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_turns_total",
			Help: "Conversational turns processed",
		},
		[]string{"tenant_id", "stage", "status"},
	)

	// StageTransitions tracks state machine edges taken.
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_stage_transitions_total",
			Help: "State machine transitions",
		},
		[]string{"from", "to"},
	)

	// FuzzyResolutions tracks item name resolution outcomes by tier.
	FuzzyResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuzzy_resolutions_total",
			Help: "Fuzzy item resolution outcomes",
		},
		[]string{"tier"},
	)

	// OrdersFulfilled tracks orders that reached fulfillment.
	OrdersFulfilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_fulfilled_total",
			Help: "Orders fulfilled",
		},
		[]string{"tenant_id"},
	)

	// OrderGrandTotal tracks the grand total of fulfilled orders.
	OrderGrandTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_grand_total",
			Help:    "Grand total of fulfilled orders in the smallest currency unit",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		},
	)

	// CatalogItems tracks the size of the loaded catalog.
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of entries in the loaded catalog",
		},
	)

	// SessionsActive tracks conversations held in memory.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of conversation sessions held in memory",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLM records metrics for an LLM call.
func RecordLLM(provider, operation, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, operation, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

// RecordTransition records one state machine edge.
func RecordTransition(from, to string) {
	StageTransitions.WithLabelValues(from, to).Inc()
}

// RecordFulfilled records a fulfilled order and its grand total.
func RecordFulfilled(tenantID string, grandTotal int64) {
	OrdersFulfilled.WithLabelValues(tenantID).Inc()
	OrderGrandTotal.Observe(float64(grandTotal))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
