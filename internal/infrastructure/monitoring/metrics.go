package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docext"

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Loader metrics
	EnsureCalls      *prometheus.CounterVec
	Installs         *prometheus.CounterVec
	InstallDuration  *prometheus.HistogramVec
	LibrariesLoaded  prometheus.Gauge
	InstallsInflight prometheus.Gauge

	// Fetch metrics
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	BreakerState  *prometheus.GaugeVec

	// Snippet metrics
	SnippetRuns     *prometheus.CounterVec
	SnippetDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	LibrariesLoaded   int64   `json:"libraries_loaded"`
	InstallsInflight  int64   `json:"installs_inflight"`
	InstallFailures   int64   `json:"install_failures"`
	SnippetRuns       int64   `json:"snippet_runs"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Loader metrics
		EnsureCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_ensure_total",
				Help:      "EnsureLoaded calls by outcome (hit, joined, started, not_found)",
			},
			[]string{"library", "outcome"},
		),
		Installs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_installs_total",
				Help:      "Completed installs by result",
			},
			[]string{"library", "result"},
		),
		InstallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "loader_install_duration_seconds",
				Help:      "Install duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"library"},
		),
		LibrariesLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "loader_libraries_loaded",
				Help:      "Number of libraries in the Loaded state",
			},
		),
		InstallsInflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "loader_installs_inflight",
				Help:      "Number of libraries in the Loading state",
			},
		),

		// Fetch metrics
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Library source fetches by host and result (hit, ok, error)",
			},
			[]string{"host", "result"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Network fetch duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"host"},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fetch_breaker_state",
				Help:      "Circuit breaker state per host (0 closed, 1 half-open, 2 open)",
			},
			[]string{"host"},
		),

		// Snippet metrics
		SnippetRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snippet_runs_total",
				Help:      "Snippet executions by outcome",
			},
			[]string{"outcome"},
		),
		SnippetDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "snippet_duration_seconds",
				Help:      "Snippet execution duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordEnsure records one EnsureLoaded call
func (m *Metrics) RecordEnsure(library, outcome string) {
	m.EnsureCalls.WithLabelValues(library, outcome).Inc()
}

// RecordInstall records a completed install
func (m *Metrics) RecordInstall(library string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
		m.mu.Lock()
		m.snapshot.InstallFailures++
		m.mu.Unlock()
	}
	m.Installs.WithLabelValues(library, result).Inc()
	m.InstallDuration.WithLabelValues(library).Observe(duration.Seconds())
}

// SetLibrariesLoaded sets the number of loaded libraries
func (m *Metrics) SetLibrariesLoaded(count int) {
	m.LibrariesLoaded.Set(float64(count))
	m.mu.Lock()
	m.snapshot.LibrariesLoaded = int64(count)
	m.mu.Unlock()
}

// SetInstallsInflight sets the number of installs in progress
func (m *Metrics) SetInstallsInflight(count int) {
	m.InstallsInflight.Set(float64(count))
	m.mu.Lock()
	m.snapshot.InstallsInflight = int64(count)
	m.mu.Unlock()
}

// RecordFetch records a source fetch. Cache hits carry no duration.
func (m *Metrics) RecordFetch(host string, cached bool, err error, duration time.Duration) {
	switch {
	case cached:
		m.Fetches.WithLabelValues(host, "hit").Inc()
		return
	case err != nil:
		m.Fetches.WithLabelValues(host, "error").Inc()
	default:
		m.Fetches.WithLabelValues(host, "ok").Inc()
	}
	m.FetchDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// SetBreakerState records a host's circuit breaker state
func (m *Metrics) SetBreakerState(host string, state int) {
	m.BreakerState.WithLabelValues(host).Set(float64(state))
}

// RecordSnippet records a snippet execution
func (m *Metrics) RecordSnippet(outcome string, duration time.Duration) {
	m.SnippetRuns.WithLabelValues(outcome).Inc()
	m.SnippetDuration.Observe(duration.Seconds())
	m.mu.Lock()
	m.snapshot.SnippetRuns++
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// GetSnapshot returns current values for the JSON API
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
