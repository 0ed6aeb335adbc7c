// Package metrics provides Prometheus metrics for the discmatch service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	fetchTotal          *prometheus.CounterVec
	fetchLatency        *prometheus.HistogramVec
	rowsDropped         *prometheus.CounterVec
	snapshotRecords     *prometheus.GaugeVec
	snapshotFetchedUnix *prometheus.GaugeVec
	snapshotProvenance  *prometheus.GaugeVec

	// Cache and fallback
	cacheOutcomes      *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	staticFallbacks    *prometheus.CounterVec

	// Remote source
	breakerState  *prometheus.GaugeVec
	rateLimitWait prometheus.Histogram

	// Matching
	matchTotal   *prometheus.CounterVec
	matchLatency prometheus.Histogram
	searchTotal  prometheus.Counter

	// Refresh queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Refresh workers
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	refreshJobs             *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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
		namespace:        "discmatch",
		subsystem:        "catalog",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.fetchTotal = m.counterVec("fetch_total", "Remote dataset fetches by outcome", "dataset", "outcome")
	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds", "Remote dataset fetch latency in milliseconds", "dataset")
	m.rowsDropped = m.counterVec("rows_dropped_total", "Rows rejected during ingestion by reason", "dataset", "reason")
	m.snapshotRecords = m.gaugeVec("snapshot_records", "Records in the active snapshot", "dataset")
	m.snapshotFetchedUnix = m.gaugeVec("snapshot_fetched_unix_seconds", "Fetch time of the active snapshot", "dataset")
	m.snapshotProvenance = m.gaugeVec("snapshot_provenance", "1 for the tier that produced the active snapshot", "dataset", "provenance")

	m.cacheOutcomes = m.counterVec("cache_outcomes_total", "Cache lookups by outcome (fresh, cached, stale, miss)", "dataset", "outcome")
	m.cacheInvalidations = m.counterVec("cache_invalidations_total", "Explicit cache invalidations", "dataset")
	m.staticFallbacks = m.counterVec("static_fallback_total", "Times the static tier was installed", "dataset")

	m.breakerState = m.gaugeVec("breaker_state", "Circuit breaker state (0 closed, 1 half-open, 2 open)", "source")
	m.rateLimitWait = m.histogram("rate_limit_wait_milliseconds", "Time spent waiting for the remote rate limiter")

	m.matchTotal = m.counterVec("match_total", "Match requests by outcome", "outcome")
	m.matchLatency = m.histogram("match_latency_milliseconds", "Similarity ranking latency in milliseconds")
	m.searchTotal = m.counter("search_total", "Catalog search requests")

	m.queueSize = m.gauge("refresh_queue_size", "Pending refresh jobs")
	m.queueCapacity = m.gauge("refresh_queue_capacity", "Refresh queue capacity")
	m.queueUtilization = m.gauge("refresh_queue_utilization_ratio", "Refresh queue fill ratio (0-1)")
	m.queueEnqueueRate = m.counter("refresh_queue_enqueue_total", "Refresh jobs enqueued")
	m.queueDequeueRate = m.counter("refresh_queue_dequeue_total", "Refresh jobs dequeued")
	m.queueEnqueueErrors = m.counter("refresh_queue_enqueue_errors_total", "Refresh jobs rejected by a full or closed queue")
	m.queueProcessingLatency = m.histogram("refresh_queue_wait_milliseconds", "Time a refresh job spent queued")

	m.workerActiveCount = m.gauge("worker_active_count", "Refresh workers currently processing")
	m.workerIdleCount = m.gauge("worker_idle_count", "Refresh workers currently idle")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Refresh job processing latency")
	m.workerErrors = m.counter("worker_errors_total", "Refresh jobs that failed")
	m.refreshJobs = m.counterVec("refresh_jobs_total", "Refresh jobs by dataset and outcome", "dataset", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds")
}

// Ingestion

// RecordFetch counts a remote fetch attempt outcome (ok, network, empty).
func RecordFetch(dataset, outcome string) {
	globalManager.fetchTotal.WithLabelValues(dataset, outcome).Inc()
}

// RecordFetchLatency records the latency of one remote fetch.
func RecordFetchLatency(dataset string, latencyMs float64) {
	globalManager.fetchLatency.WithLabelValues(dataset).Observe(latencyMs)
}

// RecordRowsDropped adds n rejected rows for reason.
func RecordRowsDropped(dataset, reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(dataset, reason).Add(float64(n))
}

// UpdateSnapshot publishes the size, age and provenance of an active snapshot.
func UpdateSnapshot(dataset, provenance string, records int, fetchedAt time.Time, provenances []string) {
	globalManager.snapshotRecords.WithLabelValues(dataset).Set(float64(records))
	globalManager.snapshotFetchedUnix.WithLabelValues(dataset).Set(float64(fetchedAt.Unix()))
	for _, p := range provenances {
		v := 0.0
		if p == provenance {
			v = 1
		}
		globalManager.snapshotProvenance.WithLabelValues(dataset, p).Set(v)
	}
}

// Cache and fallback

// RecordCacheOutcome counts a cache lookup outcome.
func RecordCacheOutcome(dataset, outcome string) {
	globalManager.cacheOutcomes.WithLabelValues(dataset, outcome).Inc()
}

// RecordCacheInvalidation counts an explicit invalidation.
func RecordCacheInvalidation(dataset string) {
	globalManager.cacheInvalidations.WithLabelValues(dataset).Inc()
}

// RecordStaticFallback counts installs of the static tier.
func RecordStaticFallback(dataset string) {
	globalManager.staticFallbacks.WithLabelValues(dataset).Inc()
}

// Remote source

// UpdateBreakerState publishes the circuit breaker state for a source.
func UpdateBreakerState(source string, state int) {
	globalManager.breakerState.WithLabelValues(source).Set(float64(state))
}

// RecordRateLimitWait records time spent blocked on the rate limiter.
func RecordRateLimitWait(waitMs float64) {
	globalManager.rateLimitWait.Observe(waitMs)
}

// Matching

// RecordMatch counts a match request outcome (ok, empty, not_found, invalid).
func RecordMatch(outcome string) {
	globalManager.matchTotal.WithLabelValues(outcome).Inc()
}

// RecordMatchLatency records ranking latency.
func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

// RecordSearch counts a catalog search.
func RecordSearch() {
	globalManager.searchTotal.Inc()
}

// Refresh queue

// UpdateQueueSize updates the pending refresh jobs gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization updates the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts a delivered job.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a job waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Refresh workers

// UpdateWorkerActiveCount updates the active workers gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount updates the idle workers gauge.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records how long one refresh job took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed refresh job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordRefreshJob counts a finished refresh job.
func RecordRefreshJob(dataset, outcome string) {
	globalManager.refreshJobs.WithLabelValues(dataset, outcome).Inc()
}

// HTTP

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an error returned by an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System

// UpdateSystemMemoryUsage updates heap usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
