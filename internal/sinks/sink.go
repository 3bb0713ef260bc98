package sinks

import "github.com/benmeehan/gps-receiver/internal/models"

// EventSink receives every event an ingestion session emits. Publish is called
// while the session holds its state lock, so implementations must not block for
// long and must not call back into the session.
type EventSink interface {
	Publish(event models.Event)
}

// SinkFunc adapts a plain function to EventSink.
type SinkFunc func(event models.Event)

// Publish calls f(event).
func (f SinkFunc) Publish(event models.Event) {
	f(event)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []EventSink

// Publish forwards the event to every non-nil sink.
func (m MultiSink) Publish(event models.Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(event)
		}
	}
}
