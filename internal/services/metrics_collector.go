package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector owns the service's Prometheus registry and the business
// metrics recorded by the services.
type MetricsCollector struct {
	registry *prometheus.Registry

	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	recommendationScores   prometheus.Histogram
	recommendationClicks   prometheus.Counter
	ratingsRecorded        prometheus.Counter
	preferenceUpdates      *prometheus.CounterVec
	ratingEventsConsumed   *prometheus.CounterVec
}

func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		recommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by outcome and cache result",
		}, []string{"outcome", "cache"}),
		recommendationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_request_duration_seconds",
			Help:    "Time spent producing a recommendation list",
			Buckets: prometheus.DefBuckets,
		}),
		recommendationScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_score",
			Help:    "Distribution of served recommendation scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		recommendationClicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "recommendation_clicks_total",
			Help: "Clicks recorded on served recommendations",
		}),
		ratingsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "book_ratings_total",
			Help: "Book ratings accepted",
		}),
		preferenceUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "preference_updates_total",
			Help: "Preference updates by kind (learned, stated)",
		}, []string{"kind"}),
		ratingEventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_events_consumed_total",
			Help: "Rating events handled from the stream by outcome",
		}, []string{"outcome"}),
	}
}

// Registry is served at /metrics and also carries the health gauges.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) RecordRecommendationRequest(outcome string, cacheHit bool, duration time.Duration) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.recommendationRequests.WithLabelValues(outcome, cache).Inc()
	m.recommendationLatency.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordScores(scores []float64) {
	for _, s := range scores {
		m.recommendationScores.Observe(s)
	}
}

func (m *MetricsCollector) RecordClick() {
	m.recommendationClicks.Inc()
}

func (m *MetricsCollector) RecordRating() {
	m.ratingsRecorded.Inc()
	m.preferenceUpdates.WithLabelValues("learned").Inc()
}

func (m *MetricsCollector) RecordStatedPreferenceUpdate() {
	m.preferenceUpdates.WithLabelValues("stated").Inc()
}

func (m *MetricsCollector) RecordRatingEvent(outcome string) {
	m.ratingEventsConsumed.WithLabelValues(outcome).Inc()
}
