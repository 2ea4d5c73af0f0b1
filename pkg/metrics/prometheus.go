// Package metrics provides Prometheus metrics for the marquee recommender service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	catalogSize           prometheus.Gauge

	// Poster resolution metrics
	posterLookups      *prometheus.CounterVec
	posterResolutions  *prometheus.CounterVec
	posterLatency      prometheus.Histogram
	posterCacheResults *prometheus.CounterVec

	// Upstream protection
	breakerState       prometheus.Gauge
	breakerTransitions *prometheus.CounterVec

	// Worker pool
	workerInFlight prometheus.Gauge
	workerPanics   prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "marquee",
		subsystem:        "recommender",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recommendations_total",
		Help:        "Recommendation requests by outcome (ok, not_found, error)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.recommendationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recommendation_latency_milliseconds",
		Help:        "End-to-end latency of a recommendation request including poster resolution",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_movies",
		Help:        "Number of movies in the loaded catalog",
		ConstLabels: m.constLabels,
	})

	m.posterLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poster_lookups_total",
		Help:        "Metadata API lookups by tier and outcome (hit, miss, error)",
		ConstLabels: m.constLabels,
	}, []string{"tier", "outcome"})

	m.posterResolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poster_resolutions_total",
		Help:        "Final poster source per candidate (id, title_year, title, cache, placeholder)",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.posterLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poster_resolution_latency_milliseconds",
		Help:        "Latency of one candidate's full fallback chain",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.posterCacheResults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "poster_cache_results_total",
		Help:        "Poster cache lookups by result (hit, miss, error)",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "metadata_breaker_state",
		Help:        "Metadata API circuit breaker state (0=closed, 1=half-open, 2=open)",
		ConstLabels: m.constLabels,
	})

	m.breakerTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "metadata_breaker_transitions_total",
		Help:        "Metadata API circuit breaker state transitions",
		ConstLabels: m.constLabels,
	}, []string{"from", "to"})

	m.workerInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_tasks_in_flight",
		Help:        "Poster resolution tasks currently running",
		ConstLabels: m.constLabels,
	})

	m.workerPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_task_panics_total",
		Help:        "Tasks that panicked and were isolated by the pool",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRecommendation counts a recommendation request outcome.
func RecordRecommendation(outcome string) {
	globalManager.recommendations.WithLabelValues(outcome).Inc()
}

// RecordRecommendationLatency observes end-to-end recommendation latency.
func RecordRecommendationLatency(latencyMs float64) {
	globalManager.recommendationLatency.Observe(latencyMs)
}

// UpdateCatalogSize sets the loaded catalog size.
func UpdateCatalogSize(count int) {
	globalManager.catalogSize.Set(float64(count))
}

// RecordPosterLookup counts one metadata API call.
func RecordPosterLookup(tier, outcome string) {
	globalManager.posterLookups.WithLabelValues(tier, outcome).Inc()
}

// RecordPosterResolution counts where a candidate's final poster came from.
func RecordPosterResolution(source string) {
	globalManager.posterResolutions.WithLabelValues(source).Inc()
}

// RecordPosterLatency observes the latency of a full fallback chain.
func RecordPosterLatency(latencyMs float64) {
	globalManager.posterLatency.Observe(latencyMs)
}

// RecordPosterCache counts a poster cache lookup result.
func RecordPosterCache(result string) {
	globalManager.posterCacheResults.WithLabelValues(result).Inc()
}

// UpdateBreakerState sets the breaker state gauge.
func UpdateBreakerState(state float64) {
	globalManager.breakerState.Set(state)
}

// RecordBreakerTransition counts a breaker state change.
func RecordBreakerTransition(from, to string) {
	globalManager.breakerTransitions.WithLabelValues(from, to).Inc()
}

// AddWorkerInFlight adjusts the in-flight task gauge by delta.
func AddWorkerInFlight(delta int) {
	globalManager.workerInFlight.Add(float64(delta))
}

// RecordWorkerPanic counts a recovered task panic.
func RecordWorkerPanic() {
	globalManager.workerPanics.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
