package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	FinalScore  prometheus.Histogram
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_verification_evaluations_total",
			Help: "Total credit evaluations by recommendation",
		}, []string{"recommendation"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_verification_rejections_total",
			Help: "Total rejection reasons appended by the override pass",
		}, []string{"reason"}),
		FinalScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vericred_verification_final_score",
			Help:    "Distribution of final credit scores",
			Buckets: prometheus.LinearBuckets(0, 100, 11),
		}),
	}
}

func (m *Metrics) ObserveEvaluation(recommendation string, finalScore int) {
	if m != nil {
		m.Evaluations.WithLabelValues(recommendation).Inc()
		m.FinalScore.Observe(float64(finalScore))
	}
}

func (m *Metrics) IncRejection(reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(reason).Inc()
	}
}
