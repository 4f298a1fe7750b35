package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records reconciliation and state-machine activity.
type EngineMetrics struct {
	transitions     *prometheus.CounterVec
	reconciliations prometheus.Counter
	malformed       prometheus.Counter
	gatewayDuration *prometheus.HistogramVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Payment state machine transitions by action and outcome.",
	}, []string{"action", "outcome"})
	reconciliations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_reconciliations_total",
		Help: "Reconciliation passes over the raw record set.",
	})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_malformed_records_total",
		Help: "Raw records dropped during reconciliation for missing keys.",
	})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, reconciliations, malformed, gatewayDuration)
	return &EngineMetrics{
		transitions:     transitions,
		reconciliations: reconciliations,
		malformed:       malformed,
		gatewayDuration: gatewayDuration,
	}
}

// IncTransition counts one transition attempt for the action/outcome pair.
func (m *EngineMetrics) IncTransition(action, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// IncReconciliation counts one reconciliation pass.
func (m *EngineMetrics) IncReconciliation() {
	if m == nil || m.reconciliations == nil {
		return
	}
	m.reconciliations.Inc()
}

// AddMalformed counts raw records dropped during a pass.
func (m *EngineMetrics) AddMalformed(n int) {
	if m == nil || m.malformed == nil || n <= 0 {
		return
	}
	m.malformed.Add(float64(n))
}

// ObserveGateway records the duration of a gateway operation.
func (m *EngineMetrics) ObserveGateway(operation string, duration time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
