package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the external gateway.
type Metrics struct {
	Authenticated *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
}

// New creates and registers all gateway metrics.
func New() *Metrics {
	return &Metrics{
		Authenticated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_gateway_authenticated_total",
			Help: "Total authenticated external requests by consumer",
		}, []string{"consumer"}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_gateway_rejected_total",
			Help: "Total rejected external requests by failure reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncAuthenticated(consumer string) {
	if m != nil {
		m.Authenticated.WithLabelValues(consumer).Inc()
	}
}

func (m *Metrics) IncRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}
