package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-input counters for the dispatcher.
type Metrics struct {
	inputs   *prometheus.CounterVec
	outputs  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	publish  *prometheus.CounterVec
}

// NewMetrics registers the dispatcher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		inputs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dapp",
				Subsystem: "wallet",
				Name:      "inputs_total",
				Help:      "Processed inputs by type, operation and status.",
			},
			[]string{"type", "operation", "status"},
		),
		outputs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dapp",
				Subsystem: "wallet",
				Name:      "outputs_total",
				Help:      "Emitted outputs by kind.",
			},
			[]string{"kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dapp",
				Subsystem: "wallet",
				Name:      "input_duration_seconds",
				Help:      "Input processing time in seconds.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"type"},
		),
		publish: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dapp",
				Subsystem: "wallet",
				Name:      "publish_failures_total",
				Help:      "Output batches that could not be published.",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observe(resp *InputResponse, typ InputType, operation string, seconds float64) {
	if m == nil {
		return
	}
	m.inputs.WithLabelValues(string(typ), operation, resp.Status).Inc()
	m.duration.WithLabelValues(string(typ)).Observe(seconds)
	for _, w := range resp.Outputs {
		m.outputs.WithLabelValues(string(w.Kind)).Inc()
	}
}

func (m *Metrics) publishFailed(operation string) {
	if m == nil {
		return
	}
	m.publish.WithLabelValues(operation).Inc()
}
