// Package metrics exposes control panel store activity as Prometheus
// metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/cpanel/internal/store"
)

// Namespace prefixes every metric name.
const Namespace = "cpanel"

// Ensure Metrics implements store.Observer.
var _ store.Observer = (*Metrics)(nil)

// Metrics holds the panel metrics and the registry they are served from.
type Metrics struct {
	registry *prometheus.Registry

	DispatchesTotal    *prometheus.CounterVec
	DispatchErrors     *prometheus.CounterVec
	DispatchDuration   *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec
	RendersTotal       *prometheus.CounterVec
	Connections        *prometheus.GaugeVec
}

// New creates the metrics on a fresh registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dispatches_total",
				Help:      "Total number of dispatched mutations",
			},
			[]string{"store", "mutation"},
		),
		DispatchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dispatch_errors_total",
				Help:      "Total number of mutations that failed",
			},
			[]string{"store", "mutation"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Mutation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"store", "mutation"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "notifications_total",
				Help:      "Total number of notification passes",
			},
			[]string{"store"},
		),
		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "renders_total",
				Help:      "Total number of component renders triggered by notifications",
			},
			[]string{"store"},
		),
		Connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "connections",
				Help:      "Number of connected components at the last notification",
			},
			[]string{"store"},
		),
	}

	m.registry.MustRegister(
		m.DispatchesTotal,
		m.DispatchErrors,
		m.DispatchDuration,
		m.NotificationsTotal,
		m.RendersTotal,
		m.Connections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Dispatched records one mutation.
func (m *Metrics) Dispatched(storeName, mutation string, elapsed time.Duration, err error) {
	m.DispatchesTotal.WithLabelValues(storeName, mutation).Inc()
	m.DispatchDuration.WithLabelValues(storeName, mutation).Observe(elapsed.Seconds())
	if err != nil {
		m.DispatchErrors.WithLabelValues(storeName, mutation).Inc()
	}
}

// Notified records one notification pass.
func (m *Metrics) Notified(storeName string, connections, renders int) {
	m.NotificationsTotal.WithLabelValues(storeName).Inc()
	m.RendersTotal.WithLabelValues(storeName).Add(float64(renders))
	m.Connections.WithLabelValues(storeName).Set(float64(connections))
}
