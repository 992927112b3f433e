package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity registry.
type Metrics struct {
	ProfilesCreated *prometheus.CounterVec
	CreateConflicts *prometheus.CounterVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_registry_profiles_created_total",
			Help: "Total profiles created by kind (primary or secondary)",
		}, []string{"kind"}),
		CreateConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_registry_create_conflicts_total",
			Help: "Total profile creations rejected by a uniqueness rule",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncCreated(kind string) {
	if m != nil {
		m.ProfilesCreated.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncConflict(kind string) {
	if m != nil {
		m.CreateConflicts.WithLabelValues(kind).Inc()
	}
}
