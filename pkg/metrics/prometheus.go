package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal   *prometheus.CounterVec
	commandsTotal  *prometheus.CounterVec
	broadcastTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habridge_signals_total",
				Help: "Total number of signals ingested",
			},
			[]string{"symbol", "classification"},
		),
		commandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habridge_trade_commands_total",
				Help: "Total trade command lifecycle transitions",
			},
			[]string{"action", "status"},
		),
		broadcastTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habridge_broadcast_events_total",
				Help: "Total events fanned out to WebSocket clients",
			},
			[]string{"event"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habridge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habridge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records an ingested signal by symbol and classification.
func (r *Recorder) RecordSignal(symbol, classification string) {
	r.signalsTotal.WithLabelValues(symbol, classification).Inc()
}

// RecordCommand records a trade command transition.
func (r *Recorder) RecordCommand(action, status string) {
	r.commandsTotal.WithLabelValues(action, status).Inc()
}

// RecordBroadcast records a fanned-out event.
func (r *Recorder) RecordBroadcast(event string) {
	r.broadcastTotal.WithLabelValues(event).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
