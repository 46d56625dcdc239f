package session

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

// publishTimeout bounds a single publish to the sink
const publishTimeout = 5 * time.Second

// Sink receives mirrored events
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Mirror forwards events to a Sink from its own goroutine so callers holding
// the session lock never wait on the network
type Mirror struct {
	sink   Sink
	events chan Event
	logger *log.Logger
}

// NewMirror creates a mirror buffering up to size events
func NewMirror(sink Sink, size int, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.New("mirror")
	}
	return &Mirror{
		sink:   sink,
		events: make(chan Event, size),
		logger: logger,
	}
}

// Enqueue queues an event without blocking. It reports false when the
// buffer is full and the event was dropped.
func (m *Mirror) Enqueue(event Event) bool {
	select {
	case m.events <- event:
		return true
	default:
		m.logger.Warnf("mirror buffer full, dropping %s event", event.Type)
		return false
	}
}

// Run publishes queued events until ctx is done
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.events:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := m.sink.Publish(pubCtx, event); err != nil {
				m.logger.Errorf("failed to mirror %s event: %v", event.Type, err)
			}
			cancel()
		}
	}
}
