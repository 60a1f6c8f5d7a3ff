// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the showcase gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showcase_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showcase_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "showcase_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// WebSocketConnections tracks the number of connected WebSocket clients.
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "showcase_websocket_connections_active",
			Help: "Active WebSocket connections",
		},
	)

	// WebSocketQueuedMessages tracks messages queued for offline sessions.
	WebSocketQueuedMessages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "showcase_websocket_queued_messages",
			Help: "Messages queued for offline sessions",
		},
	)

	// AWSRequestsTotal counts calls to AWS services by service, operation, and outcome.
	AWSRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showcase_aws_requests_total",
			Help: "AWS service requests",
		},
		[]string{"service", "operation", "status"},
	)

	// LLMRequestsTotal counts Bedrock model invocations by model and outcome.
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showcase_llm_requests_total",
			Help: "Bedrock model invocations",
		},
		[]string{"model", "status"},
	)

	// LLMLatency records Bedrock model invocation latency in seconds.
	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showcase_llm_latency_seconds",
			Help:    "Bedrock model latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// LLMRetriesTotal counts retried Bedrock invocations after throttling.
	LLMRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "showcase_llm_retries_total",
			Help: "Bedrock invocation retries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		WebSocketConnections,
		WebSocketQueuedMessages,
		AWSRequestsTotal,
		LLMRequestsTotal,
		LLMLatency,
		LLMRetriesTotal,
	)
}
