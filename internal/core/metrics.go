package core

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dispatched and relayed calls. A nil *Metrics records nothing.
type Metrics struct {
	calls  *prometheus.CounterVec
	relays *prometheus.CounterVec
}

// NewMetrics registers the engine counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urbandao",
			Name:      "calls_total",
			Help:      "Module calls by module, method and outcome.",
		}, []string{"module", "method", "outcome"}),
		relays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urbandao",
			Name:      "relay_total",
			Help:      "Relayed requests by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.relays)
	}
	return m
}

func (m *Metrics) observeCall(module, method string, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(module, method, outcome(err)).Inc()
}

// ObserveRelay counts one relayed request.
func (m *Metrics) ObserveRelay(err error) {
	if m == nil {
		return
	}
	m.relays.WithLabelValues(outcome(err)).Inc()
}

// Calls exposes the call counter for inspection.
func (m *Metrics) Calls() *prometheus.CounterVec { return m.calls }

// Relays exposes the relay counter for inspection.
func (m *Metrics) Relays() *prometheus.CounterVec { return m.relays }

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "reverted"
	}
}
