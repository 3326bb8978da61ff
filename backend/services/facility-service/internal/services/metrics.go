package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts lifecycle transitions. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer, prefix string) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_lifecycle_transitions_total",
				Help: "Facility and unit status transitions",
			},
			[]string{"entity", "from", "to"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.transitions)
	}
	return m
}

func (m *Metrics) transition(entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}
