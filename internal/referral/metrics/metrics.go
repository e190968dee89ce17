package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the referral module.
type Metrics struct {
	Created     prometheus.Counter
	Responses   *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

// New registers all referral module metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alumnet_referrals_created_total",
			Help: "Total number of referral requests created",
		}),
		Responses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnet_referral_responses_total",
			Help: "Referral responses per outcome",
		}, []string{"outcome"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnet_referral_transitions_total",
			Help: "Referral pipeline transitions per target status",
		}, []string{"status"}),
	}
}

// ObserveCreated records one created referral.
func (m *Metrics) ObserveCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

// ObserveResponse records an accept or reject outcome.
func (m *Metrics) ObserveResponse(outcome string) {
	if m != nil {
		m.Responses.WithLabelValues(outcome).Inc()
	}
}

// ObserveTransition records a pipeline transition.
func (m *Metrics) ObserveTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}
