// Package metrics provides the centralized Prometheus metrics registry for
// the prediction service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RefreshesStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "refreshes_started_total",
		Help:      "Total number of refresh pipelines started, per domain",
	}, []string{"domain"})
	RefreshFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "refresh_failures_total",
		Help:      "Total number of refresh pipelines that failed, per domain",
	}, []string{"domain"})
	RefreshSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "refresh_skipped_total",
		Help:      "Total number of refresh triggers skipped because one was already in flight",
	}, []string{"domain"})
	PredictionsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "predictions_generated_total",
		Help:      "Total number of predictions emitted by successful refreshes",
	}, []string{"domain"})
	EntityFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "entity_failures_total",
		Help:      "Total number of per-entity failures skipped inside refresh batches",
	}, []string{"domain"})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_scout",
		Name:      "upstream_requests_total",
		Help:      "Total number of upstream sports-data API requests by endpoint and status",
	}, []string{"endpoint", "status"})
)

// Gauge metrics
var (
	CacheLastUpdated = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prop_scout",
		Name:      "cache_last_updated_timestamp_seconds",
		Help:      "Unix timestamp of the last successful refresh, per domain",
	}, []string{"domain"})
	CachePredictions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prop_scout",
		Name:      "cache_predictions",
		Help:      "Number of predictions currently held in the cache, per domain",
	}, []string{"domain"})
)

// Histogram metrics
var (
	RefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prop_scout",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of refresh pipeline runs",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"domain"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RefreshesStartedTotal)
		registry.MustRegister(RefreshFailuresTotal)
		registry.MustRegister(RefreshSkippedTotal)
		registry.MustRegister(PredictionsGeneratedTotal)
		registry.MustRegister(EntityFailuresTotal)
		registry.MustRegister(UpstreamRequestsTotal)

		registry.MustRegister(CacheLastUpdated)
		registry.MustRegister(CachePredictions)

		registry.MustRegister(RefreshDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordUpstreamRequest records one upstream API request outcome.
func RecordUpstreamRequest(endpoint, status string) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordRefreshSuccess records a completed refresh and its cache contents.
func RecordRefreshSuccess(domain string, durationSeconds float64, predictions int, updatedUnix float64) {
	RefreshDuration.WithLabelValues(domain).Observe(durationSeconds)
	PredictionsGeneratedTotal.WithLabelValues(domain).Add(float64(predictions))
	CachePredictions.WithLabelValues(domain).Set(float64(predictions))
	CacheLastUpdated.WithLabelValues(domain).Set(updatedUnix)
}

// RecordRefreshFailure records a failed refresh.
func RecordRefreshFailure(domain string, durationSeconds float64) {
	RefreshDuration.WithLabelValues(domain).Observe(durationSeconds)
	RefreshFailuresTotal.WithLabelValues(domain).Inc()
}
