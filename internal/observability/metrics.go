// Domain-level Prometheus collectors. HTTP traffic metrics live in the
// middleware package; these cover the order saga, retrieval, and the
// fulfillment client, which is where the interesting failures happen.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OrdersPlaced counts saga runs by terminal outcome:
	// fulfilled | compensated | persist_failed | rejected.
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Order saga runs by terminal outcome.",
		},
		[]string{"outcome"},
	)

	// FulfillmentAttempts counts individual calls to the fulfillment
	// API by result: ok | transient_error | permanent_error.
	FulfillmentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_attempts_total",
			Help: "Individual fulfillment API attempts by result.",
		},
		[]string{"result"},
	)

	// RetrievalSearches counts retrieval runs by outcome:
	// hit | miss | embed_error | match_error. Misses and errors are
	// deliberately distinguishable here even though callers see both as
	// an empty result.
	RetrievalSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_searches_total",
			Help: "Retrieval searches by outcome.",
		},
		[]string{"outcome"},
	)

	// ToolInvocations counts orchestrator dispatches by tool and
	// whether the envelope reported success.
	ToolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Tool orchestrator dispatches by tool name and result.",
		},
		[]string{"tool", "result"},
	)

	// SagaDuration observes end-to-end saga latency, retries included.
	SagaDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_saga_duration_seconds",
			Help:    "End-to-end order saga latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms..~200s
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersPlaced,
		FulfillmentAttempts,
		RetrievalSearches,
		ToolInvocations,
		SagaDuration,
	)
}
