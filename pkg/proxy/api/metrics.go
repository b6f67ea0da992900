package api

import "github.com/prometheus/client_golang/prometheus"

// Metrics provides Prometheus metrics for the HTTP surface.
type Metrics struct {
	checksTotal *prometheus.CounterVec
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom
// registerer. Pass nil to skip metrics registration.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of authorization checks answered",
		}, []string{"allowed"}),
	}

	if registerer != nil {
		registerer.MustRegister(m.checksTotal)
	}

	return m
}

// AddCheck increments the check counter for the given outcome.
func (m *Metrics) AddCheck(allowed bool) {
	label := "false"
	if allowed {
		label = "true"
	}

	m.checksTotal.WithLabelValues(label).Inc()
}
