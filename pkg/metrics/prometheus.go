// Package metrics provides Prometheus metrics for the bullpen pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "bullpen"
	defaultSubsystem = "pipeline"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Feature engine
	gamesProcessed  prometheus.Counter
	gamesSkipped    *prometheus.CounterVec
	featureRows     prometheus.Counter
	seasonResets    prometheus.Counter
	teamsTracked    prometheus.Gauge
	pitchersTracked prometheus.Gauge

	// Upstream acquisition
	detailFetches      *prometheus.CounterVec
	detailFetchLatency prometheus.Histogram
	fetchRetries       *prometheus.CounterVec
	scheduleChunks     *prometheus.CounterVec
	cacheRequests      *prometheus.CounterVec

	// Prefetch queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    prometheus.Counter
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrorTotal prometheus.Counter

	// Sinks
	sinkWrites *prometheus.CounterVec
	sinkRows   *prometheus.CounterVec

	// Simulation
	simulationReplays  prometheus.Counter
	simulationDuration prometheus.Histogram
	simulationWorkers  prometheus.Gauge
	predictions        *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.gamesProcessed = auto.NewCounter(m.counterOpts("games_processed_total",
		"Games driven through the feature engine"))
	m.gamesSkipped = auto.NewCounterVec(m.counterOpts("games_skipped_total",
		"Games excluded from the feature table by reason"), []string{"reason"})
	m.featureRows = auto.NewCounter(m.counterOpts("feature_rows_total",
		"Feature rows emitted"))
	m.seasonResets = auto.NewCounter(m.counterOpts("season_resets_total",
		"Team state resets at season boundaries"))
	m.teamsTracked = auto.NewGauge(m.gaugeOpts("teams_tracked",
		"Teams with state in the current season"))
	m.pitchersTracked = auto.NewGauge(m.gaugeOpts("pitchers_tracked",
		"Pitchers with career state"))

	m.detailFetches = auto.NewCounterVec(m.counterOpts("detail_fetches_total",
		"Box-score fetches by outcome"), []string{"outcome"})
	m.detailFetchLatency = auto.NewHistogram(m.histogramOpts("detail_fetch_latency_milliseconds",
		"Box-score fetch latency including retries", m.histogramBuckets))
	m.fetchRetries = auto.NewCounterVec(m.counterOpts("fetch_retries_total",
		"Upstream request retries by endpoint"), []string{"endpoint"})
	m.scheduleChunks = auto.NewCounterVec(m.counterOpts("schedule_chunks_total",
		"Schedule chunk fetches by outcome"), []string{"outcome"})
	m.cacheRequests = auto.NewCounterVec(m.counterOpts("cache_requests_total",
		"Box-score cache lookups by result"), []string{"result"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Games waiting for detail prefetch"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Capacity of the prefetch queue"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total",
		"Enqueue attempts rejected by a full or closed queue"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Prefetch workers running"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Per-game prefetch processing latency", m.histogramBuckets))
	m.workerErrorTotal = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Prefetch jobs that ended in error"))

	m.sinkWrites = auto.NewCounterVec(m.counterOpts("sink_writes_total",
		"Sink write calls by sink and outcome"), []string{"sink", "outcome"})
	m.sinkRows = auto.NewCounterVec(m.counterOpts("sink_rows_total",
		"Rows written by sink"), []string{"sink"})

	m.simulationReplays = auto.NewCounter(m.counterOpts("simulation_replays_total",
		"Season replays completed"))
	m.simulationDuration = auto.NewHistogram(m.histogramOpts("simulation_duration_milliseconds",
		"Wall time of a full simulation", m.histogramBuckets))
	m.simulationWorkers = auto.NewGauge(m.gaugeOpts("simulation_workers",
		"Replay workers used by the last simulation"))
	m.predictions = auto.NewCounterVec(m.counterOpts("predictions_total",
		"Home-win probabilities produced by outcome"), []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordGameProcessed increments the processed games counter.
func RecordGameProcessed() { globalManager.gamesProcessed.Inc() }

// RecordGameSkipped counts a game left out of the feature table.
func RecordGameSkipped(reason string) { globalManager.gamesSkipped.WithLabelValues(reason).Inc() }

// RecordFeatureRow counts an emitted feature row.
func RecordFeatureRow() { globalManager.featureRows.Inc() }

// RecordSeasonReset counts a team-state reset.
func RecordSeasonReset() { globalManager.seasonResets.Inc() }

// UpdateTrackedEntities sets the tracked team and pitcher gauges.
func UpdateTrackedEntities(teams, pitchers int) {
	globalManager.teamsTracked.Set(float64(teams))
	globalManager.pitchersTracked.Set(float64(pitchers))
}

// RecordDetailFetch counts a box-score fetch and its latency.
func RecordDetailFetch(outcome string, latencyMs float64) {
	globalManager.detailFetches.WithLabelValues(outcome).Inc()
	globalManager.detailFetchLatency.Observe(latencyMs)
}

// RecordFetchRetry counts one retry against an upstream endpoint.
func RecordFetchRetry(endpoint string) { globalManager.fetchRetries.WithLabelValues(endpoint).Inc() }

// RecordScheduleChunk counts a schedule chunk fetch.
func RecordScheduleChunk(outcome string) { globalManager.scheduleChunks.WithLabelValues(outcome).Inc() }

// RecordCacheRequest counts a cache lookup ("hit", "miss" or "error").
func RecordCacheRequest(result string) { globalManager.cacheRequests.WithLabelValues(result).Inc() }

// UpdateQueueSize sets the current prefetch queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the prefetch queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// UpdateWorkerCount sets the number of running prefetch workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records how long one prefetch job took.
func RecordWorkerProcessingLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordWorkerError counts a failed prefetch job.
func RecordWorkerError() { globalManager.workerErrorTotal.Inc() }

// RecordSinkWrite counts a sink write and the rows it carried.
func RecordSinkWrite(sink, outcome string, rows int) {
	globalManager.sinkWrites.WithLabelValues(sink, outcome).Inc()
	if outcome == "ok" {
		globalManager.sinkRows.WithLabelValues(sink).Add(float64(rows))
	}
}

// RecordSimulation records a completed simulation.
func RecordSimulation(replays, workers int, durationMs float64) {
	globalManager.simulationReplays.Add(float64(replays))
	globalManager.simulationWorkers.Set(float64(workers))
	globalManager.simulationDuration.Observe(durationMs)
}

// RecordPrediction counts a predictor call by outcome ("ok" or "error").
func RecordPrediction(outcome string) { globalManager.predictions.WithLabelValues(outcome).Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
