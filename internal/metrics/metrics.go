// Package metrics exposes Prometheus counters for HTTP traffic and AI suggestions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Suggestion outcomes.
const (
	OutcomeGenerated        = "generated"
	OutcomeAlreadySuggested = "already_suggested"
	OutcomeQuotaExceeded    = "quota_exceeded"
	OutcomeNotFound         = "not_found"
	OutcomeNotConfigured    = "not_configured"
	OutcomeUnavailable      = "unavailable"
	OutcomeCanceled         = "canceled"
	OutcomeFailed           = "failed"
)

// Recorder is what services and middleware report into.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordSuggestion(outcome string)
	RecordGeneration(duration time.Duration)
}

type Collector struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	suggestion *prometheus.CounterVec
	generation prometheus.Histogram
}

// NewCollector registers all metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskpilot_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskpilot_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		suggestion: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskpilot_suggestions_total",
			Help: "AI suggestion requests by outcome",
		}, []string{"outcome"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskpilot_generation_seconds",
			Help:    "Time spent waiting on the AI provider in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.suggestion,
		c.generation,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordSuggestion(outcome string) {
	c.suggestion.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordGeneration(duration time.Duration) {
	c.generation.Observe(duration.Seconds())
}

// Handler serves the scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when metrics are not wired, e.g. in tests.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordSuggestion(string)                          {}
func (Nop) RecordGeneration(time.Duration)                   {}
