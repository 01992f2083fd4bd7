// Package metrics provides Prometheus metrics for the pricing analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Analysis
	analysisRuns           *prometheus.CounterVec
	analysisDuration       prometheus.Histogram
	vehiclesAnalyzed       prometheus.Counter
	comparablesPerVehicle  prometheus.Histogram
	positions              *prometheus.CounterVec
	recommendationBranches *prometheus.CounterVec

	// Snapshot loading
	snapshotRows     *prometheus.GaugeVec
	snapshotPages    prometheus.Counter
	snapshotDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton

// Latency buckets in milliseconds. Full analyses read whole snapshots, so the
// tail is wider than prometheus.DefBuckets.
var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "comparador",
		subsystem:        "pricing",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.analysisRuns = auto.NewCounterVec(
		m.counterOpts("analysis_runs_total", "Analysis requests by kind (full, vehicle) and outcome"),
		[]string{"kind", "outcome"},
	)
	m.analysisDuration = auto.NewHistogram(
		m.histogramOpts("analysis_duration_milliseconds", "End-to-end analysis duration including snapshot reads", m.histogramBuckets),
	)
	m.vehiclesAnalyzed = auto.NewCounter(
		m.counterOpts("vehicles_analyzed_total", "Stock vehicles priced"),
	)
	m.comparablesPerVehicle = auto.NewHistogram(
		m.histogramOpts("comparables_per_vehicle", "Matched competitor listings per stock vehicle",
			[]float64{0, 1, 2, 3, 5, 10, 20, 50, 100}),
	)
	m.positions = auto.NewCounterVec(
		m.counterOpts("positions_total", "Position verdicts issued"),
		[]string{"position"},
	)
	m.recommendationBranches = auto.NewCounterVec(
		m.counterOpts("recommendation_branch_total", "Recommendation policy branch taken per vehicle"),
		[]string{"branch"},
	)

	m.snapshotRows = auto.NewGaugeVec(
		m.gaugeOpts("snapshot_rows", "Rows read from each snapshot table in the last analysis"),
		[]string{"table"},
	)
	m.snapshotPages = auto.NewCounter(
		m.counterOpts("snapshot_pages_total", "Competitor pages fetched"),
	)
	m.snapshotDuration = auto.NewHistogramVec(
		m.histogramOpts("snapshot_read_duration_milliseconds", "Snapshot read duration by table", m.histogramBuckets),
		[]string{"table"},
	)
	m.upstreamErrors = auto.NewCounterVec(
		m.counterOpts("upstream_errors_total", "Snapshot read failures by table"),
		[]string{"table"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordAnalysisRun counts one analysis request with its outcome.
func (m *Manager) RecordAnalysisRun(kind, outcome string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.analysisRuns.WithLabelValues(kind, outcome).Inc()
	m.analysisDuration.Observe(durationMs)
}

// RecordVehicleAnalyzed records one priced vehicle, its comparable count,
// verdict and policy branch. Empty position or branch labels are skipped.
func (m *Manager) RecordVehicleAnalyzed(comparables int, position, branch string) {
	if !m.enabled {
		return
	}
	m.vehiclesAnalyzed.Inc()
	m.comparablesPerVehicle.Observe(float64(comparables))
	if position != "" {
		m.positions.WithLabelValues(position).Inc()
	}
	if branch != "" {
		m.recommendationBranches.WithLabelValues(branch).Inc()
	}
}

// RecordSnapshotRead records a completed table read.
func (m *Manager) RecordSnapshotRead(table string, rows int, durationMs float64) {
	if !m.enabled {
		return
	}
	m.snapshotRows.WithLabelValues(table).Set(float64(rows))
	m.snapshotDuration.WithLabelValues(table).Observe(durationMs)
}

// RecordSnapshotPage counts one fetched competitor page.
func (m *Manager) RecordSnapshotPage() {
	if !m.enabled {
		return
	}
	m.snapshotPages.Inc()
}

// RecordUpstreamError counts a failed snapshot read.
func (m *Manager) RecordUpstreamError(table string) {
	if !m.enabled {
		return
	}
	m.upstreamErrors.WithLabelValues(table).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError records an error against its endpoint, type, severity and latency.
func (m *Manager) RecordError(endpoint, method, errorType, severity string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorLatency.WithLabelValues("http", errorType).Observe(latencyMs)
}

// RecordErrorByComponent records an error raised outside the HTTP layer.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystem sets the runtime gauges.
func (m *Manager) UpdateSystem(heapBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause records one GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers write to the process-wide manager.

func RecordAnalysisRun(kind, outcome string, durationMs float64) {
	globalManager.RecordAnalysisRun(kind, outcome, durationMs)
}

func RecordVehicleAnalyzed(comparables int, position, branch string) {
	globalManager.RecordVehicleAnalyzed(comparables, position, branch)
}

func RecordSnapshotRead(table string, rows int, durationMs float64) {
	globalManager.RecordSnapshotRead(table, rows, durationMs)
}

func RecordSnapshotPage() { globalManager.RecordSnapshotPage() }

func RecordUpstreamError(table string) { globalManager.RecordUpstreamError(table) }

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

func RecordError(endpoint, method, errorType, severity string, latencyMs float64) {
	globalManager.RecordError(endpoint, method, errorType, severity, latencyMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

func UpdateSystem(heapBytes uint64, goroutines int) { globalManager.UpdateSystem(heapBytes, goroutines) }

func RecordGCPause(pauseMs float64) { globalManager.RecordGCPause(pauseMs) }

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
