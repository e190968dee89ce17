package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the job module.
type Metrics struct {
	Posted    prometheus.Counter
	Published prometheus.Counter
	Removed   prometheus.Counter
}

// New registers all job module metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Posted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alumnet_jobs_posted_total",
			Help: "Total number of job postings submitted",
		}),
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alumnet_jobs_published_total",
			Help: "Total number of job postings published",
		}),
		Removed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alumnet_jobs_removed_total",
			Help: "Total number of job postings taken down",
		}),
	}
}

// ObservePosted records a submitted posting.
func (m *Metrics) ObservePosted() {
	if m != nil {
		m.Posted.Inc()
	}
}

// ObservePublished records a published posting.
func (m *Metrics) ObservePublished() {
	if m != nil {
		m.Published.Inc()
	}
}

// ObserveRemoved records a takedown.
func (m *Metrics) ObserveRemoved() {
	if m != nil {
		m.Removed.Inc()
	}
}
