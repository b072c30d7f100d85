package operations

import (
	"context"
)

// WebSocketHub interface for sending WebSocket messages
type WebSocketHub interface {
	BroadcastUpdate(eventType, runID, status string, metadata interface{})
}

// Sink receives progress updates from the broadcaster goroutine.
type Sink interface {
	Deliver(Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Update)

// Deliver implements Sink.
func (f SinkFunc) Deliver(u Update) { f(u) }

// ExampleProvider supplies input files when a run names none.
type ExampleProvider interface {
	Provision(ctx context.Context) ([]string, error)
}

// HubSink forwards updates to a WebSocket hub.
type HubSink struct {
	Hub WebSocketHub
}

// Deliver implements Sink.
func (s HubSink) Deliver(u Update) {
	event := EventTypeRunProgress
	switch u.Phase {
	case PhaseDone:
		event = EventTypeRunComplete
	case PhaseFailed:
		event = EventTypeRunError
	}
	s.Hub.BroadcastUpdate(event, u.RunID, string(u.Phase), u)
}
