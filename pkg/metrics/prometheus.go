// Package metrics provides Prometheus metrics for the CREW matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the CREW service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recommendation Metrics - the core business signal
	recommendationsServed *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	recommendationErrors  prometheus.Counter
	candidatesScored      prometheus.Counter
	candidatesFetched     prometheus.Histogram
	teamSelections        prometheus.Counter
	emptyRecommendations  prometheus.Counter

	// Recommendation Cache Metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheEntries       prometheus.Gauge

	// Batch Loader Metrics
	loaderBatches   prometheus.Counter
	loaderBatchSize prometheus.Histogram
	loaderCacheHits prometheus.Counter
	loaderCoalesced prometheus.Counter
	loaderErrors    prometheus.Counter

	// Chunked Processor Metrics
	processorChunks       prometheus.Counter
	processorItemFailures prometheus.Counter

	// Profile Store Metrics
	storeQueryLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "crew",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics registers every metric on the configured registry.
func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.recommendationsServed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_served_total",
		Help:      "Total recommendation lists served, by scoring mode.",
	}, []string{"mode"})

	m.recommendationLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_latency_ms",
		Help:      "End-to-end recommendation latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.recommendationErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_errors_total",
		Help:      "Total terminal errors returned by the recommendation path.",
	})

	m.candidatesScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Total candidate profiles run through the compatibility scorer.",
	})

	m.candidatesFetched = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_fetched",
		Help:      "Candidate pool sizes returned by the pipeline query.",
		Buckets:   []float64{0, 10, 25, 50, 100, 200, 500},
	})

	m.teamSelections = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_selections_total",
		Help:      "Total greedy team selection runs.",
	})

	m.emptyRecommendations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "empty_recommendations_total",
		Help:      "Recommendation calls that produced an empty list (consent denied or no candidates).",
	})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Recommendation cache hits.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Recommendation cache misses.",
	})

	m.cacheInvalidations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_invalidations_total",
		Help:      "Entries removed by per-user cache invalidation.",
	})

	m.cacheEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of recommendation cache entries.",
	})

	m.loaderBatches = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loader_batches_total",
		Help:      "Underlying batched queries issued by the batch loader.",
	})

	m.loaderBatchSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loader_batch_size",
		Help:      "Number of distinct keys per flushed batch.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	})

	m.loaderCacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loader_cache_hits_total",
		Help:      "Batch loader TTL cache hits.",
	})

	m.loaderCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loader_coalesced_total",
		Help:      "Loads coalesced onto an already-pending key in the same batching window.",
	})

	m.loaderErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loader_errors_total",
		Help:      "Failed underlying batch queries.",
	})

	m.processorChunks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processor_chunks_total",
		Help:      "Chunks processed by the chunked batch processor.",
	})

	m.processorItemFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processor_item_failures_total",
		Help:      "Individual item failures inside chunked processing.",
	})

	m.storeQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_ms",
		Help:      "Profile store query latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines.",
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

func RecordRecommendationServed(mode string) {
	globalManager.recommendationsServed.WithLabelValues(mode).Inc()
}
func RecordRecommendationLatency(ms float64) { globalManager.recommendationLatency.Observe(ms) }
func RecordRecommendationError()             { globalManager.recommendationErrors.Inc() }
func RecordCandidatesScored(n int)           { globalManager.candidatesScored.Add(float64(n)) }
func RecordCandidatesFetched(n int)          { globalManager.candidatesFetched.Observe(float64(n)) }
func RecordTeamSelection()                   { globalManager.teamSelections.Inc() }
func RecordEmptyRecommendation()             { globalManager.emptyRecommendations.Inc() }

func RecordCacheHit()  { globalManager.cacheHits.Inc() }
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }
func RecordCacheInvalidation(n int) {
	globalManager.cacheInvalidations.Add(float64(n))
}
func UpdateCacheEntries(n int) { globalManager.cacheEntries.Set(float64(n)) }

func RecordLoaderBatch(size int) {
	globalManager.loaderBatches.Inc()
	globalManager.loaderBatchSize.Observe(float64(size))
}
func RecordLoaderCacheHit()  { globalManager.loaderCacheHits.Inc() }
func RecordLoaderCoalesced() { globalManager.loaderCoalesced.Inc() }
func RecordLoaderError()     { globalManager.loaderErrors.Inc() }

func RecordProcessorChunk()       { globalManager.processorChunks.Inc() }
func RecordProcessorItemFailure() { globalManager.processorItemFailures.Inc() }

func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutineCount.Set(float64(n)) }
