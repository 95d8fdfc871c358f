package execution

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeTimeout = "timeout"
	outcomeError   = "error"
)

// Metrics records dispatch counts and latencies. A nil *Metrics records nothing.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datagrid",
			Subsystem: "function",
			Name:      "executions_total",
			Help:      "Function executions by target kind and outcome.",
		}, []string{"target", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "datagrid",
			Subsystem: "function",
			Name:      "execution_duration_seconds",
			Help:      "Time from dispatch until results were collected.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
	}

	if reg != nil {
		reg.MustRegister(m.dispatches, m.duration)
	}
	return m
}

func (m *Metrics) observe(target, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(target, outcome).Inc()
	m.duration.WithLabelValues(target).Observe(elapsed.Seconds())
}

// Dispatches exposes the execution counter, mostly for tests.
func (m *Metrics) Dispatches() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.dispatches
}
