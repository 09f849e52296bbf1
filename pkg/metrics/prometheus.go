// Package metrics provides Prometheus metrics for the roster extraction pipeline.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Upstream fetch metrics
	fetchRequests *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	fetchRetries  prometheus.Counter

	// Cache metrics
	cacheLookups *prometheus.CounterVec
	cacheWrites  prometheus.Counter

	// Reference snapshot metrics
	snapshotRefreshes *prometheus.CounterVec

	// Pipeline metrics
	tournamentsDiscovered prometheus.Gauge
	unitsTotal            *prometheus.CounterVec
	unitLatency           prometheus.Histogram
	validationIssues      *prometheus.CounterVec
	teamsValidated        *prometheus.CounterVec

	// Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rosterpipe",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.fetchRequests = m.counterVec("fetch_requests_total", "Upstream HTTP requests by outcome", "outcome")
	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Upstream HTTP request latency in milliseconds")
	m.fetchRetries = m.counter("fetch_retries_total", "Upstream HTTP requests retried after a transient failure")

	m.cacheLookups = m.counterVec("cache_lookups_total", "Page cache lookups by result (hit, miss, stale, corrupt)", "result")
	m.cacheWrites = m.counter("cache_writes_total", "Page cache entries written")

	m.snapshotRefreshes = m.counterVec("snapshot_refreshes_total", "Reference snapshot refresh attempts by result", "result")

	m.tournamentsDiscovered = m.gauge("tournaments_discovered", "Tournaments selected for the current run")
	m.unitsTotal = m.counterVec("units_total", "Processing units reaching a terminal state", "state", "stage")
	m.unitLatency = m.histogram("unit_latency_milliseconds", "Time from dequeue to terminal state per unit")
	m.validationIssues = m.counterVec("validation_issues_total", "Legality issues by code and severity", "code", "severity")
	m.teamsValidated = m.counterVec("teams_validated_total", "Validated teams by legality", "legal")

	m.queueSize = m.gauge("queue_size", "Current number of queued units")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the unit queue")
	m.queueEnqueueRate = m.counter("queue_enqueued_total", "Units enqueued")
	m.queueDequeueRate = m.counter("queue_dequeued_total", "Units dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueue attempts")

	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Units a worker could not process")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
}

// RecordFetch records an upstream request outcome and its latency.
func RecordFetch(outcome string, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(outcome).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchRetry increments the retry counter.
func RecordFetchRetry() {
	globalManager.fetchRetries.Inc()
}

// RecordCacheLookup counts a cache lookup by result.
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheWrite counts a cache entry write.
func RecordCacheWrite() {
	globalManager.cacheWrites.Inc()
}

// RecordSnapshotRefresh counts a reference snapshot refresh attempt.
func RecordSnapshotRefresh(result string) {
	globalManager.snapshotRefreshes.WithLabelValues(result).Inc()
}

// UpdateTournamentsDiscovered sets the tournaments selected for the run.
func UpdateTournamentsDiscovered(n int) {
	globalManager.tournamentsDiscovered.Set(float64(n))
}

// RecordUnit counts a unit reaching a terminal state.
func RecordUnit(state, stage string, latencyMs float64) {
	globalManager.unitsTotal.WithLabelValues(state, stage).Inc()
	globalManager.unitLatency.Observe(latencyMs)
}

// RecordValidationIssue counts a legality issue.
func RecordValidationIssue(code, severity string) {
	globalManager.validationIssues.WithLabelValues(code, severity).Inc()
}

// RecordTeamValidated counts a validated team.
func RecordTeamValidated(legal bool) {
	label := "false"
	if legal {
		label = "true"
	}
	globalManager.teamsValidated.WithLabelValues(label).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

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
	globalManager.workerErrorRate.Inc()
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes every global metric to path in the Prometheus text
// exposition format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
