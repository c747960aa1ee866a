// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the sitekeeper collectors, registered on their own
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	AuthEvents      *prometheus.CounterVec
	WebsiteEvents   *prometheus.CounterVec
}

// New creates the collectors plus the standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitekeeper_http_request_duration_seconds",
				Help:    "HTTP request latency by route, method and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitekeeper_auth_events_total",
				Help: "Registrations, logins and logouts by outcome",
			},
			[]string{"event", "outcome"},
		),
		WebsiteEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitekeeper_website_events_total",
				Help: "Website add/delete operations by outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	reg.MustRegister(m.RequestDuration, m.AuthEvents, m.WebsiteEvents)
	return m
}

// Auth counts an auth event ("register", "login", "logout") with its outcome.
func (m *Metrics) Auth(event, outcome string) {
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Website counts a website event ("add", "delete") with its outcome.
func (m *Metrics) Website(event, outcome string) {
	m.WebsiteEvents.WithLabelValues(event, outcome).Inc()
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
