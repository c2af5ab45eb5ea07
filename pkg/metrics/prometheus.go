// Package metrics provides Prometheus metrics for the sketchduel matchmaking service.
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

// Manager manages all Prometheus metrics for the sketchduel service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - The matchmaking funnel
	playRequests   prometheus.Counter
	gamesJoined    prometheus.Counter
	gamesCreated   prometheus.Counter
	joinConflicts  prometheus.Counter
	selfMatchSkips prometheus.Counter

	// Batch Engine Metrics
	batchesProcessed prometheus.Counter
	batchSize        prometheus.Histogram
	batchLatency     prometheus.Histogram
	lookupLatency    prometheus.Histogram
	mutationLatency  prometheus.Histogram
	pendingRequests  prometheus.Gauge
	openGamesInPool  prometheus.Gauge

	// Game Lifecycle Metrics
	drawingsSubmitted prometheus.Counter
	votesCast         prometheus.Counter
	votesDuplicate    prometheus.Counter

	// Operational Health Metrics
	totalGames    prometheus.Gauge
	totalProfiles prometheus.Gauge

	// Store Metrics - Document store performance
	storeOpLatency *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "sketchduel",
		subsystem:        "matchmaking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics - The matchmaking funnel
	m.playRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "play_requests_total",
		Help:      "Total number of play requests accepted into the pending queue",
	})

	m.gamesJoined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_joined_total",
		Help:      "Total number of requesters seated into an existing open game",
	})

	m.gamesCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_created_total",
		Help:      "Total number of fresh games created when no open game was eligible",
	})

	m.joinConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "join_conflicts_total",
		Help:      "Total number of joins lost to a concurrent second seat",
	})

	m.selfMatchSkips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "self_match_skips_total",
		Help:      "Total number of slots skipped because the seated player was the requester",
	})

	// Batch Engine Metrics - Coalescing performance
	m.batchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of matchmaking batches processed",
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size",
		Help:      "Histogram of requests coalesced per batch (amortization indicator)",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	})

	m.batchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_latency_milliseconds",
		Help:      "End-to-end batch processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.lookupLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lookup_latency_milliseconds",
		Help:      "Open-game snapshot query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.mutationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_latency_milliseconds",
		Help:      "Join/create store call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pendingRequests = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_requests",
		Help:      "Current number of play requests waiting for the next batch",
	})

	m.openGamesInPool = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_games_in_pool",
		Help:      "Size of the open-game snapshot fetched for the most recent batch",
	})

	// Game Lifecycle Metrics
	m.drawingsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drawings_submitted_total",
		Help:      "Total number of drawings accepted",
	})

	m.votesCast = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_cast_total",
		Help:      "Total number of votes recorded",
	})

	m.votesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_duplicate_total",
		Help:      "Total number of duplicate votes rejected (client retry noise)",
	})

	// Operational Health Metrics - System stability indicators
	m.totalGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_games",
		Help:      "Total number of game documents in the store",
	})

	m.totalProfiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_profiles",
		Help:      "Total number of player profiles in the store",
	})

	// Store Metrics - Document store performance
	m.storeOpLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_op_latency_milliseconds",
			Help:      "Store operation latency in milliseconds by operation",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of store operation failures by operation",
		},
		[]string{"op"},
	)

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint and method",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of failed operations in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of GC pause times in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the custom Prometheus registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Matchmaking Funnel Functions.

// RecordPlayRequest increments the accepted play request counter.
func RecordPlayRequest() {
	globalManager.playRequests.Inc()
}

// RecordGameJoined increments the joined-pairing counter.
func RecordGameJoined() {
	globalManager.gamesJoined.Inc()
}

// RecordGameCreated increments the fresh-game counter.
func RecordGameCreated() {
	globalManager.gamesCreated.Inc()
}

// RecordJoinConflict increments the lost-join counter.
func RecordJoinConflict() {
	globalManager.joinConflicts.Inc()
}

// RecordSelfMatchSkip increments the self-match exclusion counter.
func RecordSelfMatchSkip() {
	globalManager.selfMatchSkips.Inc()
}

// Batch Engine Functions.

// RecordBatch records one processed batch and its size.
func RecordBatch(size int) {
	globalManager.batchesProcessed.Inc()
	globalManager.batchSize.Observe(float64(size))
}

// RecordBatchLatency records end-to-end batch processing latency.
func RecordBatchLatency(latencyMs float64) {
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordLookupLatency records open-game snapshot query latency.
func RecordLookupLatency(latencyMs float64) {
	globalManager.lookupLatency.Observe(latencyMs)
}

// RecordMutationLatency records join/create store call latency.
func RecordMutationLatency(latencyMs float64) {
	globalManager.mutationLatency.Observe(latencyMs)
}

// UpdatePendingRequests sets the pending queue depth.
func UpdatePendingRequests(n int) {
	globalManager.pendingRequests.Set(float64(n))
}

// UpdateOpenGamesInPool sets the size of the latest open-game snapshot.
func UpdateOpenGamesInPool(n int) {
	globalManager.openGamesInPool.Set(float64(n))
}

// Game Lifecycle Functions.

// RecordDrawingSubmitted increments the accepted drawing counter.
func RecordDrawingSubmitted() {
	globalManager.drawingsSubmitted.Inc()
}

// RecordVoteCast increments the recorded vote counter.
func RecordVoteCast() {
	globalManager.votesCast.Inc()
}

// RecordVoteDuplicate increments the duplicate vote counter.
func RecordVoteDuplicate() {
	globalManager.votesDuplicate.Inc()
}

// Operational Health Functions.

// UpdateTotalGames sets the total game document gauge.
func UpdateTotalGames(count int) {
	globalManager.totalGames.Set(float64(count))
}

// UpdateTotalProfiles sets the total profile document gauge.
func UpdateTotalProfiles(count int) {
	globalManager.totalProfiles.Set(float64(count))
}

// Store Functions.

// RecordStoreOpLatency records a store operation latency by op name.
func RecordStoreOpLatency(op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError increments the store failure counter for op.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// HTTP Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the current memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause time sample.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}
