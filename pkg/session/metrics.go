package session

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes session health through Prometheus collectors. Sessions
// register against an explicit Registerer so parallel sessions and tests do
// not collide on the default registry.
type Metrics struct {
	registry *prometheus.Registry

	// CacheSize tracks the number of cached records per entity family.
	CacheSize *prometheus.GaugeVec

	// RowEvents counts applied row operations by family and kind.
	RowEvents *prometheus.CounterVec

	// Resubscribes counts full orchestrator resubscribe passes.
	Resubscribes prometheus.Counter

	// Reconnects counts successful redials after connection loss.
	Reconnects prometheus.Counter

	// Online reports the connection state (1 = online, 0 = offline).
	Online prometheus.Gauge
}

// NewMetrics creates and registers the session collectors on a private
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		CacheSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_cache_size",
				Help: "Number of cached records by entity family",
			},
			[]string{"family"},
		),

		RowEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "system_row_events_total",
				Help: "Total row operations applied by family and kind",
			},
			[]string{"family", "kind"},
		),

		Resubscribes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "system_resubscribes_total",
				Help: "Total orchestrator resubscribe passes",
			},
		),

		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "system_reconnects_total",
				Help: "Total successful reconnections",
			},
		),

		Online: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "system_connection_online",
				Help: "Whether the server link is live (1 = online)",
			},
		),
	}

	m.registry.MustRegister(
		m.CacheSize,
		m.RowEvents,
		m.Resubscribes,
		m.Reconnects,
		m.Online,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for this session's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
