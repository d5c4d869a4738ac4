package redis

import (
	"context"
	"log/slog"
	"pulse-lab/contract"

	goredis "github.com/redis/go-redis/v9"
)

// RelayWorker injects changes published by other instances into the local bus.
type RelayWorker struct {
	log      *slog.Logger
	client   goredis.UniversalClient
	notifier contract.ChangeNotifier
	instance string
}

func NewRelayWorker(log *slog.Logger, client goredis.UniversalClient, notifier contract.ChangeNotifier, instance string) *RelayWorker {
	return &RelayWorker{log: log, client: client, notifier: notifier, instance: instance}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	pubsub := w.client.PSubscribe(ctx, ChannelPattern)
	defer pubsub.Close()

	// A failed subscription ends the run; the supervisor restarts it.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	w.log.Info("Relaying remote changes", "pattern", ChannelPattern, "instance", w.instance)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			w.relay(ctx, msg)
		}
	}
}

func (w *RelayWorker) relay(ctx context.Context, msg *goredis.Message) {
	c, err := decodeChange(msg.Payload)
	if err != nil {
		w.log.Warn("Dropping unreadable change", "channel", msg.Channel, "error", err)
		return
	}
	if c.Instance == w.instance {
		return
	}
	w.log.Debug("Remote change", "channel", msg.Channel, "key", c.Key(), "from", c.Instance)
	w.notifier.Notify(ctx, c)
}
