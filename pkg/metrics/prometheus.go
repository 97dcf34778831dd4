// Package metrics provides Prometheus metrics for the talentscore service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Performance aggregation
	aggregationsTotal      *prometheus.CounterVec
	aggregationFailures    prometheus.Counter
	aggregationLatency     prometheus.Histogram
	performanceFallbacks   prometheus.Counter
	providerReadLatency    *prometheus.HistogramVec
	providerReadErrors     *prometheus.CounterVec
	invalidRecordsSkipped  *prometheus.CounterVec
	repositoryQueryLatency *prometheus.HistogramVec
	storedRecords          *prometheus.GaugeVec

	// Ingestion
	ingestAccepted   *prometheus.CounterVec
	ingestDuplicates *prometheus.CounterVec
	recordsPersisted *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

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

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentscore",
		subsystem:        "performance",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.aggregationsTotal = auto.NewCounterVec(
		m.counterOpts("aggregations_total", "Successful performance aggregations by resulting skill level"),
		[]string{"skill_level"},
	)
	m.aggregationFailures = auto.NewCounter(
		m.counterOpts("aggregation_failures_total", "Performance aggregations aborted by a provider failure"),
	)
	m.aggregationLatency = auto.NewHistogram(
		m.histogramOpts("aggregation_latency_milliseconds", "End-to-end performance aggregation latency"),
	)
	m.performanceFallbacks = auto.NewCounter(
		m.counterOpts("fallbacks_total", "Responses that served the zero summary after a failed aggregation"),
	)
	m.providerReadLatency = auto.NewHistogramVec(
		m.histogramOpts("provider_read_latency_milliseconds", "Latency of a single provider read"),
		[]string{"op"},
	)
	m.providerReadErrors = auto.NewCounterVec(
		m.counterOpts("provider_read_errors_total", "Failed provider reads"),
		[]string{"op"},
	)
	m.invalidRecordsSkipped = auto.NewCounterVec(
		m.counterOpts("invalid_records_skipped_total", "Malformed records left out of a summary"),
		[]string{"kind"},
	)
	m.repositoryQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_query_latency_milliseconds", "Latency of the completed-assessment group query"),
		[]string{"backend"},
	)
	m.storedRecords = auto.NewGaugeVec(
		m.gaugeOpts("stored_records", "Records held by the store"),
		[]string{"kind"},
	)

	m.ingestAccepted = auto.NewCounterVec(
		m.counterOpts("ingest_accepted_total", "Records accepted for asynchronous persistence"),
		[]string{"kind"},
	)
	m.ingestDuplicates = auto.NewCounterVec(
		m.counterOpts("ingest_duplicates_total", "Records dropped as already seen"),
		[]string{"kind"},
	)
	m.recordsPersisted = auto.NewCounterVec(
		m.counterOpts("records_persisted_total", "Records written to the store by workers"),
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum ingestion queue capacity"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Records waiting in the ingestion queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size over capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Records enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Records dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running persistence workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Time to persist one record"),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Records a worker failed to persist"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component"),
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
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// Performance aggregation.

// RecordAggregation counts a successful aggregation and observes its latency.
func RecordAggregation(skillLevel string, latencyMs float64) {
	globalManager.aggregationsTotal.WithLabelValues(skillLevel).Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordAggregationFailure counts an aborted aggregation.
func RecordAggregationFailure() {
	globalManager.aggregationFailures.Inc()
}

// RecordPerformanceFallback counts a response served from the zero summary.
func RecordPerformanceFallback() {
	globalManager.performanceFallbacks.Inc()
}

// RecordProviderReadLatency observes the latency of one provider read.
func RecordProviderReadLatency(op string, latencyMs float64) {
	globalManager.providerReadLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordProviderReadError counts a failed provider read.
func RecordProviderReadError(op string) {
	globalManager.providerReadErrors.WithLabelValues(op).Inc()
}

// RecordInvalidRecordSkipped counts a malformed record left out of a summary.
func RecordInvalidRecordSkipped(kind string) {
	globalManager.invalidRecordsSkipped.WithLabelValues(kind).Inc()
}

// RecordRepositoryQueryLatency observes the group query latency of a backend.
func RecordRepositoryQueryLatency(backend string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(backend).Observe(latencyMs)
}

// UpdateStoredRecords sets the number of stored records of a kind.
func UpdateStoredRecords(kind string, count int) {
	globalManager.storedRecords.WithLabelValues(kind).Set(float64(count))
}

// Ingestion.

// RecordIngestAccepted counts a record accepted for persistence.
func RecordIngestAccepted(kind string) {
	globalManager.ingestAccepted.WithLabelValues(kind).Inc()
}

// RecordIngestDuplicate counts a record dropped as a duplicate.
func RecordIngestDuplicate(kind string) {
	globalManager.ingestDuplicates.WithLabelValues(kind).Inc()
}

// RecordRecordPersisted counts a record written by a worker.
func RecordRecordPersisted(kind string) {
	globalManager.recordsPersisted.WithLabelValues(kind).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
