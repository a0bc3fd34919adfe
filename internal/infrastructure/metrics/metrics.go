// Package metrics exposes Learnify's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
)

const namespace = "learnify"

// Metrics owns a private registry and every Learnify collector.
// It satisfies session.Metrics, pricing.Metrics, scheduler.Observer and
// messaging.Observer.
type Metrics struct {
	registry *prometheus.Registry

	rollovers      *prometheus.CounterVec
	freezeRequests *prometheus.CounterVec
	commits        *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	priceRefreshes *prometheus.CounterVec
	priceSamples   prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
	eventsTotal    *prometheus.CounterVec
	eventHandlers  *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rollovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollovers_total",
			Help:      "Day rollovers applied, by outcome.",
		}, []string{"outcome"}),
		freezeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "freeze_requests_total",
			Help:      "Streak freeze requests, by result.",
		}, []string{"result"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_commits_total",
			Help:      "Persisted streak mutations, by operation and status.",
		}, []string{"operation", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job run time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		priceRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_refreshes_total",
			Help:      "Price feed polls, by status.",
		}, []string{"status"}),
		priceSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_samples_recorded_total",
			Help:      "Spot price samples recorded.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"name"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Streak events published, by type.",
		}, []string{"type"}),
		eventHandlers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_runs_total",
			Help:      "Event handler runs, by event type and status.",
		}, []string{"type", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rollovers,
		m.freezeRequests,
		m.commits,
		m.jobRuns,
		m.jobDuration,
		m.priceRefreshes,
		m.priceSamples,
		m.httpRequests,
		m.httpDuration,
		m.breakerState,
		m.eventsTotal,
		m.eventHandlers,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RolloverApplied implements session.Metrics.
func (m *Metrics) RolloverApplied(outcome streak.Outcome) {
	m.rollovers.WithLabelValues(string(outcome)).Inc()
}

// FreezeRequested implements session.Metrics.
func (m *Metrics) FreezeRequested(result string) {
	m.freezeRequests.WithLabelValues(result).Inc()
}

// StateCommitted implements session.Metrics.
func (m *Metrics) StateCommitted(op string, err error) {
	m.commits.WithLabelValues(op, status(err)).Inc()
}

// JobFinished implements scheduler.Observer.
func (m *Metrics) JobFinished(job string, d time.Duration, err error) {
	m.jobRuns.WithLabelValues(job, status(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// PricesRefreshed implements pricing.Metrics.
func (m *Metrics) PricesRefreshed(recorded int, err error) {
	m.priceRefreshes.WithLabelValues(status(err)).Inc()
	if recorded > 0 {
		m.priceSamples.Add(float64(recorded))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// BreakerStateChanged is a circuitbreaker state-change callback.
func (m *Metrics) BreakerStateChanged(name string, _, to circuitbreaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(to))
}

// EventPublished implements messaging.Observer.
func (m *Metrics) EventPublished(eventType string) {
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

// EventHandled implements messaging.Observer.
func (m *Metrics) EventHandled(eventType string, _ time.Duration, err error) {
	m.eventHandlers.WithLabelValues(eventType, status(err)).Inc()
}
