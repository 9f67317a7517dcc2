package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Announcer Metrics
var (
	// AnnouncerActiveListeners tracks the number of registered subscriptions
	AnnouncerActiveListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "announcer_active_listeners",
			Help: "Number of registered SSE subscriptions",
		},
	)

	// AnnouncerPublishesTotal tracks events accepted by the fan-out engine
	AnnouncerPublishesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "announcer_publishes_total",
			Help: "Total events published to the announcer",
		},
	)

	// AnnouncerEvictionsTotal tracks slow listeners evicted due to a full inbox
	AnnouncerEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "announcer_evictions_total",
			Help: "Total listeners evicted because their inbox was full at publish time",
		},
	)

	// AnnouncerKeepAlivesTotal tracks synthetic keep-alive events published
	AnnouncerKeepAlivesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "announcer_keepalives_total",
			Help: "Total keep-alive ping events published",
		},
	)
)

// SSE Connection Metrics
var (
	// SSEConnectionsCurrent tracks currently open event-stream connections
	SSEConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_current",
			Help: "Current number of open SSE connections",
		},
	)

	// SSEConnectionsTotal tracks connection attempts by result
	SSEConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_connections_total",
			Help: "Total SSE connection attempts by result (accepted/rejected)",
		},
		[]string{"result"},
	)

	// SSEConnectionsRejected tracks rejected connection attempts by reason
	SSEConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_connections_rejected_total",
			Help: "Total SSE connections rejected by reason (rate_limit/per_ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// SSEConnectionDuration tracks how long event-stream connections stay open
	SSEConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sse_connection_duration_seconds",
			Help:    "SSE connection duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
	)
)

// Boundary Channel Metrics
var (
	// BoundaryRequestsTotal tracks remote announcer operations by result
	BoundaryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boundary_requests_total",
			Help: "Total boundary channel operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTP Error Metrics
// Note: http_errors_total{type} is provided by the internal/errors package
