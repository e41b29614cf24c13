// Package metrics provides Prometheus metrics for the perfil profile engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the perfil service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	profilesAggregated      prometheus.Counter
	incompleteInstruments   *prometheus.CounterVec
	aggregationLatency      prometheus.Histogram
	narrations              prometheus.Counter
	classAggregations       prometheus.Counter
	classAggregationLatency prometheus.Histogram
	exports                 *prometheus.CounterVec
	responsesStored         prometheus.Counter
	responsesDuplicate      prometheus.Counter
	scoringErrors           prometheus.Counter

	// Profile cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge

	// Repository
	repositoryRecords       *prometheus.GaugeVec
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Delivery queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Delivery workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter
	workerRetryCount        prometheus.Counter
	reportDeliveries        *prometheus.CounterVec

	// Text generation
	aiRequests *prometheus.CounterVec
	aiErrors   *prometheus.CounterVec
	aiLatency  prometheus.Histogram

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

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "perfil",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.profilesAggregated = auto.NewCounter(m.counterOpts("profiles_aggregated_total",
		"Total number of unified profiles aggregated"))
	m.incompleteInstruments = auto.NewCounterVec(m.counterOpts("incomplete_instruments_total",
		"Instruments marked incomplete during aggregation"), []string{"instrument"})
	m.aggregationLatency = auto.NewHistogram(m.histogramOpts("aggregation_latency_milliseconds",
		"Per-student profile aggregation latency in milliseconds", nil))
	m.narrations = auto.NewCounter(m.counterOpts("narrations_total",
		"Total number of insight sets rendered"))
	m.classAggregations = auto.NewCounter(m.counterOpts("class_aggregations_total",
		"Total number of class aggregates computed"))
	m.classAggregationLatency = auto.NewHistogram(m.histogramOpts("class_aggregation_latency_milliseconds",
		"Class aggregation latency in milliseconds", nil))
	m.exports = auto.NewCounterVec(m.counterOpts("exports_total",
		"Exports rendered by format"), []string{"format"})
	m.responsesStored = auto.NewCounter(m.counterOpts("responses_stored_total",
		"Raw responses accepted"))
	m.responsesDuplicate = auto.NewCounter(m.counterOpts("responses_duplicate_total",
		"Raw responses rejected as resubmissions"))
	m.scoringErrors = auto.NewCounter(m.counterOpts("scoring_errors_total",
		"Fatal scoring errors such as unknown categories"))

	m.cacheHits = auto.NewCounter(m.counterOpts("profile_cache_hits_total", "Profile cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("profile_cache_misses_total", "Profile cache misses"))
	m.cacheEvictions = auto.NewCounter(m.counterOpts("profile_cache_evictions_total", "Profile cache evictions"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("profile_cache_size", "Current number of cached profiles"))

	m.repositoryRecords = auto.NewGaugeVec(m.gaugeOpts("repository_records",
		"Stored records by kind"), []string{"kind"})
	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Repository write latency in milliseconds", nil))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Repository read latency in milliseconds", nil))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the delivery queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum delivery queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds",
		"Time from enqueue to dequeue in milliseconds", nil))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of delivery workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of busy workers"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Number of idle workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("worker_messages_per_second",
		"Average jobs processed per second by workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Worker job latency in milliseconds", nil))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))
	m.workerRetryCount = auto.NewCounter(m.counterOpts("worker_retries_total", "Total number of worker retries"))
	m.reportDeliveries = auto.NewCounterVec(m.counterOpts("report_deliveries_total",
		"Report deliveries by outcome"), []string{"status"})

	m.aiRequests = auto.NewCounterVec(m.counterOpts("ai_requests_total",
		"Text generation requests"), []string{"operation", "provider"})
	m.aiErrors = auto.NewCounterVec(m.counterOpts("ai_errors_total",
		"Text generation failures"), []string{"operation"})
	m.aiLatency = auto.NewHistogram(m.histogramOpts("ai_latency_milliseconds",
		"Text generation latency in milliseconds", []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Total number of errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds",
		"Latency of operations that resulted in errors", nil), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Engine metrics.

// RecordProfileAggregated increments the aggregated profiles counter.
func RecordProfileAggregated() { globalManager.profilesAggregated.Inc() }

// RecordIncompleteInstrument counts an instrument left incomplete.
func RecordIncompleteInstrument(instrument string) {
	globalManager.incompleteInstruments.WithLabelValues(instrument).Inc()
}

// RecordAggregationLatency records per-student aggregation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) { globalManager.aggregationLatency.Observe(latencyMs) }

// RecordNarration increments the narrations counter.
func RecordNarration() { globalManager.narrations.Inc() }

// RecordClassAggregation increments the class aggregations counter.
func RecordClassAggregation() { globalManager.classAggregations.Inc() }

// RecordClassAggregationLatency records class aggregation latency in milliseconds.
func RecordClassAggregationLatency(latencyMs float64) {
	globalManager.classAggregationLatency.Observe(latencyMs)
}

// RecordExport counts an export of the given format.
func RecordExport(format string) { globalManager.exports.WithLabelValues(format).Inc() }

// RecordResponseStored increments the stored responses counter.
func RecordResponseStored() { globalManager.responsesStored.Inc() }

// RecordResponseDuplicate increments the rejected resubmissions counter.
func RecordResponseDuplicate() { globalManager.responsesDuplicate.Inc() }

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() { globalManager.scoringErrors.Inc() }

// Cache metrics.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() { globalManager.cacheEvictions.Inc() }

// UpdateCacheSize sets the current cache size.
func UpdateCacheSize(size int) { globalManager.cacheSize.Set(float64(size)) }

// Repository metrics.

// UpdateRepositoryRecords sets the stored record count of a kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository write latency in milliseconds.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency in milliseconds.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records queue wait time in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) { globalManager.workerIdleCount.Set(float64(count)) }

// UpdateWorkerMessagesPerSecond sets the worker throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// RecordWorkerProcessingLatency records job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrorRate.Inc() }

// RecordWorkerRetry increments the worker retry counter.
func RecordWorkerRetry() { globalManager.workerRetryCount.Inc() }

// RecordReportDelivery counts a report delivery outcome.
func RecordReportDelivery(status string) { globalManager.reportDeliveries.WithLabelValues(status).Inc() }

// Text generation metrics.

// RecordAIRequest counts a text generation request.
func RecordAIRequest(operation, provider string) {
	globalManager.aiRequests.WithLabelValues(operation, provider).Inc()
}

// RecordAIError counts a failed text generation request.
func RecordAIError(operation string) { globalManager.aiErrors.WithLabelValues(operation).Inc() }

// RecordAILatency records text generation latency in milliseconds.
func RecordAILatency(latencyMs float64) { globalManager.aiLatency.Observe(latencyMs) }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by endpoint, method and type.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of failed operations.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
