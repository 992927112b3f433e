package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the OTP module.
type Metrics struct {
	Issued    *prometheus.CounterVec
	Verified  *prometheus.CounterVec
	Mismatch  *prometheus.CounterVec
	Consumed  *prometheus.CounterVec
	SendError prometheus.Counter
}

// New creates and registers all OTP metrics.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_otp_issued_total",
			Help: "Total OTP challenges issued by channel",
		}, []string{"channel"}),
		Verified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_otp_verified_total",
			Help: "Total successful OTP verifications by channel",
		}, []string{"channel"}),
		Mismatch: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_otp_mismatch_total",
			Help: "Total wrong-code OTP attempts by channel",
		}, []string{"channel"}),
		Consumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vericred_otp_consumed_total",
			Help: "Total OTP challenges consumed by downstream operations",
		}, []string{"channel"}),
		SendError: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vericred_otp_send_errors_total",
			Help: "Total failed OTP dispatch attempts (non-fatal to issuing)",
		}),
	}
}

func (m *Metrics) IncIssued(channel string) {
	if m != nil {
		m.Issued.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncVerified(channel string) {
	if m != nil {
		m.Verified.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncMismatch(channel string) {
	if m != nil {
		m.Mismatch.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncConsumed(channel string) {
	if m != nil {
		m.Consumed.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncSendError() {
	if m != nil {
		m.SendError.Inc()
	}
}
