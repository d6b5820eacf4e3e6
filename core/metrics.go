package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes terminal-engine counters to Prometheus, grounded on the
// teacher's HealthLogger (gauges/counters registered against a private
// registry rather than the global default one, so multiple Terminals in the
// same process never collide).
type Metrics struct {
	registry *prometheus.Registry

	MCNEmitted       prometheus.Counter
	StateTransitions prometheus.Counter
	CycleGuardAborts prometheus.Counter
	PINEntries       prometheus.Counter
	FDKPresses       prometheus.Counter
	Status           prometheus.Gauge
}

// NewMetrics builds a Metrics with all collectors registered against a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MCNEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atmterm_mcn_emitted_total",
			Help: "Total number of message coordination numbers issued.",
		}),
		StateTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atmterm_state_transitions_total",
			Help: "Total number of state-machine transitions driven.",
		}),
		CycleGuardAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atmterm_cycle_guard_aborts_total",
			Help: "Total number of times the transition cycle guard aborted a drive loop.",
		}),
		PINEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atmterm_pin_digits_entered_total",
			Help: "Total number of PIN digits appended across all transactions.",
		}),
		FDKPresses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atmterm_fdk_presses_total",
			Help: "Total number of function display key presses processed.",
		}),
		Status: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atmterm_status",
			Help: "Current terminal status as its numeric TerminalStatus value.",
		}),
	}
	reg.MustRegister(
		m.MCNEmitted,
		m.StateTransitions,
		m.CycleGuardAborts,
		m.PINEntries,
		m.FDKPresses,
		m.Status,
	)
	return m
}

// Handler returns an http.Handler serving this Metrics' registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
