// Package metrics exposes transition and fault counters for the
// scouting core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	faults      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scouting",
			Name:      "transitions_total",
			Help:      "Completed lifecycle transitions by operation.",
		}, []string{"op"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scouting",
			Name:      "faults_total",
			Help:      "Rejected operations by fault kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.transitions, m.faults)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transition and Fault are nil-safe so the engine can run unmetered.

func (m *Metrics) Transition(op string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(op).Inc()
}

func (m *Metrics) Fault(kind string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(kind).Inc()
}
