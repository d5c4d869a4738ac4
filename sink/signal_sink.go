package sink

import (
	"context"
	"pulse-lab/domain/event"
)

// SignalSink hands changes to a single watcher goroutine.
// Changes the watcher does not care about are filtered out before buffering, and a
// full buffer drops the change: a pending signal already guarantees a fresh read.
type SignalSink struct {
	C      chan event.Change
	filter func(event.Change) bool
}

func NewSignalSink(bufferSize int, filter func(event.Change) bool) *SignalSink {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &SignalSink{C: make(chan event.Change, bufferSize), filter: filter}
}

// Consume is called by fanout
func (s *SignalSink) Consume(ctx context.Context, c event.Change) error {
	if s.filter != nil && !s.filter(c) {
		return nil
	}
	select {
	case s.C <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
