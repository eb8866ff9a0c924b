package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lease payment engine.
type Metrics struct {
	LeasesCreated    prometheus.Counter
	PaymentsAccepted *prometheus.CounterVec // by timeliness
	PaymentsRejected *prometheus.CounterVec // by reason
	SlotsMissed      prometheus.Counter
	PayRentDuration  prometheus.Histogram
}

// New registers all engine metrics against the given registerer. Tests pass
// a fresh prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LeasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rentscore_leases_created_total",
			Help: "Total number of leases created",
		}),
		PaymentsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rentscore_payments_accepted_total",
			Help: "Accepted rent payments by timeliness",
		}, []string{"timeliness"}),
		PaymentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rentscore_payments_rejected_total",
			Help: "Rejected rent payments by reason",
		}, []string{"reason"}),
		SlotsMissed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rentscore_slots_missed_total",
			Help: "Payment slots whose window closed unpaid",
		}),
		PayRentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentscore_pay_rent_duration_seconds",
			Help:    "Duration of PayRent operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObservePayment records one accepted payment.
func (m *Metrics) ObservePayment(onTime bool, start time.Time) {
	timeliness := "late"
	if onTime {
		timeliness = "on_time"
	}
	m.PaymentsAccepted.WithLabelValues(timeliness).Inc()
	m.PayRentDuration.Observe(time.Since(start).Seconds())
}

// ObserveRejection records one rejected payment attempt.
func (m *Metrics) ObserveRejection(reason string) {
	m.PaymentsRejected.WithLabelValues(reason).Inc()
}
