// Package metrics holds the process-wide Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPAttempts counts physical attempts against the remote API by outcome
	// (success, retryable_status, status, network_error, timeout, cancelled).
	HTTPAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbridge_http_attempts_total",
			Help: "Total number of HTTP attempts against the task API",
		},
		[]string{"outcome"},
	)

	// HTTPRetries counts attempts that were followed by another attempt.
	HTTPRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbridge_http_retries_total",
			Help: "Total number of retried HTTP attempts",
		},
	)

	// HTTPRequestDuration tracks the latency of one logical request, retries included.
	HTTPRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskbridge_http_request_duration_seconds",
			Help:    "Logical HTTP request latency in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ToolCalls counts tool invocations by tool and result code ("ok" on success).
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskbridge_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool", "code"},
	)

	// ToolDuration tracks tool call latency.
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskbridge_tool_duration_seconds",
			Help:    "Tool call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// FanOutLists tracks how many lists one planning operation scanned.
	FanOutLists = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskbridge_planner_fanout_lists",
			Help:    "Number of lists scanned by one planning operation",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
	)
)
