// Package redis runs several server instances against one shared state.
// Sessions, prompts, marks and tallies live in redis, and each instance publishes
// the changes it makes and relays the ones made elsewhere into its local bus.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"pulse-lab/domain/event"

	goredis "github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "pulse"
	// ChannelPattern matches every change channel.
	ChannelPattern = channelPrefix + ":*"
	anySlide       = "_"
)

// Channel is pulse:{session}:{slide}, with "_" when the change is not about a slide tally.
func Channel(c event.Change) string {
	slide := string(c.Slide)
	if c.Kind != event.TallyChanged || slide == "" {
		slide = anySlide
	}
	return fmt.Sprintf("%s:%s:%s", channelPrefix, c.Session, slide)
}

// Publisher is a permanent sink: it sees every local change and forwards those
// originating on this instance.
type Publisher struct {
	log      *slog.Logger
	client   goredis.UniversalClient
	instance string
}

func NewPublisher(log *slog.Logger, client goredis.UniversalClient, instance string) *Publisher {
	return &Publisher{log: log, client: client, instance: instance}
}

func (p *Publisher) Consume(ctx context.Context, c event.Change) error {
	if c.Instance != p.instance {
		return nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Channel(c), payload).Err(); err != nil {
		p.log.Warn("Redis publish failed", "session", c.Session, "key", c.Key(), "error", err)
		return err
	}
	return nil
}

func decodeChange(payload string) (event.Change, error) {
	var c event.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return event.Change{}, err
	}
	if c.Session == "" {
		return event.Change{}, fmt.Errorf("change without session")
	}
	return c, nil
}
