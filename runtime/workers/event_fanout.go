package workers

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"time"
)

// EventFanout delivers change signals to the sinks of the changed session and to
// permanent sinks.
//
// Delivery is best effort: each sink gets its own goroutine bounded by
// sinkTimeout, so a slow subscriber cannot stall the others.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	changes        chan event.Change
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, changes chan event.Change,
	sinkTimeout time.Duration, permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		changes:        changes,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case c := <-w.changes:
			w.Fanout(c)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping change fanout")
			return nil
		}
	}
}

// Fanout One goroutine for each sink
func (w *EventFanout) Fanout(c event.Change) {
	sinks := append(w.registry.GetSinksForSession(c.Session, c.Origin), w.permanentSinks...)
	for _, sink := range sinks {
		go func(s contract.EventSink) {
			ctx, cancel := context.WithTimeout(context.Background(), w.sinkTimeout)
			defer cancel()
			if err := s.Consume(ctx, c); err != nil {
				w.log.Debug("Sink did not take the change", "session", c.Session,
					"key", c.Key(), "error", err)
			}
		}(sink)
	}
}
