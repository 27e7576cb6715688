// Package metrics owns the Prometheus collectors of the API server and the
// worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maintrack"

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing, so callers in tests can skip wiring it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	recordsCreated   prometheus.Counter
	capRejections    prometheus.Counter
	publishFailures  prometheus.Counter
	eventsHandled    *prometheus.CounterVec
	analyticsLookups *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

// New creates a private registry with Go and process collectors plus the
// application collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		recordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Maintenance records persisted.",
		}),
		capRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_cap_rejections_total",
			Help:      "Tenant writes rejected by the active tenant cap.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "record.created events that could not be published.",
		}),
		eventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_events_total",
			Help:      "Worker events by outcome.",
		}, []string{"outcome"}),
		analyticsLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_lookups_total",
			Help:      "Analytics snapshot cache lookups by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Mutating requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.recordsCreated, m.capRejections,
		m.publishFailures, m.eventsHandled, m.analyticsLookups, m.rateLimited)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordCreated() {
	if m != nil {
		m.recordsCreated.Inc()
	}
}

func (m *Metrics) CapRejected() {
	if m != nil {
		m.capRejections.Inc()
	}
}

func (m *Metrics) PublishFailed() {
	if m != nil {
		m.publishFailures.Inc()
	}
}

// EventHandled counts a worker event; outcome is "ok", "duplicate",
// "retry" or "dropped".
func (m *Metrics) EventHandled(outcome string) {
	if m != nil {
		m.eventsHandled.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AnalyticsLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.analyticsLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
