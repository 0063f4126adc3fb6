// Package prometheus exposes gateway usage as Prometheus metrics and
// implements the UsageRecorder port.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

const namespace = "creditgate"

// Compile-time interface satisfaction check.
var _ driven.UsageRecorder = (*Metrics)(nil)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	creditsDebited *prometheus.CounterVec
	rejections     *prometheus.CounterVec
}

// New registers the gateway metrics. activeSessions is sampled on every
// scrape; it may be nil.
func New(activeSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		creditsDebited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_debited_total",
			Help:      "Credits charged for successful operations.",
		}, []string{"operation"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_rejections_total",
			Help:      "Metered operations that failed, by error kind.",
		}, []string{"operation", "kind"}),
	}

	if activeSessions != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Downstream sessions currently held in the session registry.",
		}, func() float64 { return float64(activeSessions()) })
	}

	return m
}

// Debited records a successful charge.
func (m *Metrics) Debited(operation string, amount int64) {
	m.creditsDebited.WithLabelValues(operation).Add(float64(amount))
}

// Rejected records a failed operation.
func (m *Metrics) Rejected(operation, kind string) {
	m.rejections.WithLabelValues(operation, kind).Inc()
}

// ObserveHTTP records one served request. route is the matched mux pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
