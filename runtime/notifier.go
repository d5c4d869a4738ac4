package runtime

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/observability"
)

// Notifier is the in-process change bus. Notify only enqueues; the fanout worker
// delivers to the registry's sinks.
type Notifier struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.Monitor
	changes  chan event.Change
	instance string
}

func NewNotifier(log *slog.Logger, registry contract.IRegistry, monitor *observability.Monitor,
	bufferSize int, instance string) *Notifier {
	return &Notifier{
		log:      log,
		registry: registry,
		monitor:  monitor,
		changes:  make(chan event.Change, bufferSize),
		instance: instance,
	}
}

// Notify never blocks the writer. A full queue drops the change: receivers
// re-read on the next one.
func (n *Notifier) Notify(_ context.Context, c event.Change) {
	if c.Instance == "" {
		c.Instance = n.instance
	}
	select {
	case n.changes <- c:
	default:
		n.monitor.NotificationDropped()
		n.log.Warn("Change queue full, dropping notification",
			"session", c.Session, "key", c.Key(), "origin", c.Origin)
	}
}

func (n *Notifier) Subscribe(sub contract.Subscription) {
	n.registry.Subscribe(sub)
	n.monitor.SubscriptionOpened()
}

func (n *Notifier) Unsubscribe(subscriptionID string) {
	n.registry.Unsubscribe(subscriptionID)
	n.monitor.SubscriptionClosed()
}

func (n *Notifier) Instance() string { return n.instance }

func (n *Notifier) Changes() chan event.Change { return n.changes }
