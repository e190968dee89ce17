package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the college module.
type Metrics struct {
	CollegeCreated        prometheus.Counter
	RegistrationsByRole   *prometheus.CounterVec
	ResolveDomainDuration prometheus.Histogram
}

// New registers all college module metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		CollegeCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alumnet_colleges_created_total",
			Help: "Total number of colleges created",
		}),
		RegistrationsByRole: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnet_college_registrations_total",
			Help: "Accepted registrations per role",
		}, []string{"role"}),
		ResolveDomainDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "alumnet_resolve_domain_duration_seconds",
			Help:    "Duration of ResolveOrCreate operations (registration critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveResolve records one ResolveOrCreate duration.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m != nil {
		m.ResolveDomainDuration.Observe(time.Since(start).Seconds())
	}
}
