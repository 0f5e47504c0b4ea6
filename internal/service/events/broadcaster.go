package events

import (
	"context"
	"time"

	drepo "habridge/internal/domain/repository"
	"habridge/pkg/kafka"
	applogger "habridge/pkg/logger"
)

// Fanout publishes every event to the WebSocket hub and, when a
// producer is configured, mirrors it to a Kafka topic for audit.
// The mirror is best effort: a broker outage never blocks or fails
// the HTTP request that produced the event.
type Fanout struct {
	hub      drepo.Broadcaster
	producer *kafka.Producer
	topic    string
	metrics  drepo.Metrics
	l        *applogger.Logger
}

type auditEvent struct {
	Event   string    `json:"event"`
	Symbol  string    `json:"symbol,omitempty"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// NewFanout wires the hub with an optional Kafka mirror. Pass a nil
// producer to disable mirroring.
func NewFanout(hub drepo.Broadcaster, producer *kafka.Producer, topic string, metrics drepo.Metrics, l *applogger.Logger) *Fanout {
	return &Fanout{hub: hub, producer: producer, topic: topic, metrics: metrics, l: l}
}

// Publish implements repository.Broadcaster.
func (f *Fanout) Publish(event, symbol string, payload any) {
	f.hub.Publish(event, symbol, payload)
	f.metrics.RecordBroadcast(event)

	if f.producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev := auditEvent{Event: event, Symbol: symbol, Payload: payload, At: time.Now().UTC()}
	if err := f.producer.Publish(ctx, f.topic, []byte(symbol), ev); err != nil {
		f.l.Warn("kafka mirror publish",
			applogger.String("event", event),
			applogger.Error(err))
	}
}
