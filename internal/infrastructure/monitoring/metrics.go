package monitoring

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Render metrics
	SandboxesOpened  prometheus.Counter
	SandboxesActive  prometheus.Gauge
	RenderDuration   prometheus.Histogram
	StaleMessages    prometheus.Counter
	ResizeMessages   prometheus.Counter
	ActionMessages   *prometheus.CounterVec
	MarkersProcessed prometheus.Counter

	// Resolver metrics
	Resolutions       prometheus.Counter
	ResolutionErrors  prometheus.Counter
	AttachmentsSigned prometheus.Counter

	// Store metrics
	Entities *prometheus.GaugeVec

	// Reference editor metrics
	EditSessionsActive prometheus.Gauge
	RefSaves           prometheus.Counter
	RefSaveFailures    prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Snapshot counters for the JSON API
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	startTime     time.Time
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabnote_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabnote_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SandboxesOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_sandboxes_opened_total",
				Help: "Total number of sandbox sessions opened",
			},
		),
		SandboxesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabnote_sandboxes_active",
				Help: "Number of live sandbox sessions",
			},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tabnote_render_duration_seconds",
				Help:    "Sandbox document build duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		StaleMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_sandbox_stale_messages_total",
				Help: "Messages dropped because their session id was stale or unknown",
			},
		),
		ResizeMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_sandbox_resize_messages_total",
				Help: "Accepted sandbox-resize messages",
			},
		),
		ActionMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabnote_sandbox_action_messages_total",
				Help: "Accepted tab-action messages",
			},
			[]string{"action"},
		),
		MarkersProcessed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_action_markers_processed_total",
				Help: "Action markers converted during the server-side pass",
			},
		),

		Resolutions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_attachment_resolutions_total",
				Help: "Attachment reference resolution passes",
			},
		),
		ResolutionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_attachment_resolution_errors_total",
				Help: "Resolution passes that fell back to unresolved content",
			},
		),
		AttachmentsSigned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_attachments_signed_total",
				Help: "Signed URLs issued",
			},
		),

		Entities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tabnote_entities",
				Help: "Number of stored entities by kind",
			},
			[]string{"kind"},
		),

		EditSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabnote_refedit_sessions_active",
				Help: "Number of open reference edit sessions",
			},
		),
		RefSaves: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_refedit_saves_total",
				Help: "Successful reference list saves",
			},
		),
		RefSaveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tabnote_refedit_save_failures_total",
				Help: "Reference list saves rejected by the store",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabnote_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabnote_ws_messages_total",
				Help: "WebSocket messages by type and direction",
			},
			[]string{"type", "direction"},
		),
	}
}

// Registry exposes the backing registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.totalRequests.Add(1)
	if status >= 400 {
		m.totalErrors.Add(1)
	}
}

// GetSnapshot returns current counters for the JSON API
func (m *Metrics) GetSnapshot() Snapshot {
	return Snapshot{
		TotalRequests: m.totalRequests.Load(),
		TotalErrors:   m.totalErrors.Load(),
		UptimeSeconds: time.Since(m.startTime).Seconds(),
	}
}
