// Package metrics provides Prometheus metrics for the claim assistant.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	SuggestionsRequested prometheus.Counter
	SuggestionsFailed    prometheus.Counter
	SuggestionsUncoded   prometheus.Counter
	SuggestionDuration   prometheus.Histogram
	ClaimsSubmitted      prometheus.Counter
	ClaimsFailed         prometheus.Counter
	SubmitDuration       prometheus.Histogram
	ActiveSessions       prometheus.Gauge
	EventsPublished      prometheus.Counter
	EventsFailed         prometheus.Counter
	EventsConsumed       prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SuggestionsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_suggestions_requested_total",
			Help: "Total code suggestion requests",
		}),
		SuggestionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_suggestions_failed_total",
			Help: "Total suggestion requests that failed at the completion endpoint",
		}),
		SuggestionsUncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_suggestions_uncoded_total",
			Help: "Total suggestions without a parseable code",
		}),
		SuggestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "claim_suggestion_duration_seconds",
			Help:    "Completion endpoint latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32, 64},
		}),
		ClaimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claims_submitted_total",
			Help: "Total claims inserted",
		}),
		ClaimsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claims_failed_total",
			Help: "Total claim inserts that failed",
		}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "claim_submit_duration_seconds",
			Help:    "Claim insert latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "claim_sessions_active",
			Help: "Claim sessions currently held in memory",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Total Kafka messages that could not be produced",
		}),
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "code"}),
	}

	reg.MustRegister(
		m.SuggestionsRequested,
		m.SuggestionsFailed,
		m.SuggestionsUncoded,
		m.SuggestionDuration,
		m.ClaimsSubmitted,
		m.ClaimsFailed,
		m.SubmitDuration,
		m.ActiveSessions,
		m.EventsPublished,
		m.EventsFailed,
		m.EventsConsumed,
		m.HTTPRequests,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves the metrics gathered by g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
