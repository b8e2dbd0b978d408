package operation

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeSuccess is the outcome label for resolved performs. Failed
// performs use the operation ErrorType.
const OutcomeSuccess = "success"

// Metrics records perform counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the perform collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrmless_action_requests_total",
			Help: "Action performs by action, kind, and outcome.",
		}, []string{"action", "kind", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrmless_action_duration_seconds",
			Help:    "Action perform latency including the outbound request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action", "kind"}),
	}
}

// Observe records one perform. A nil receiver records nothing.
func (m *Metrics) Observe(action string, kind Kind, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, string(kind), Outcome(err)).Inc()
	m.duration.WithLabelValues(action, string(kind)).Observe(d.Seconds())
}

// Outcome returns the metric label for err.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var opErr *Error
	if errors.As(err, &opErr) {
		return string(opErr.Type)
	}
	return "error"
}
