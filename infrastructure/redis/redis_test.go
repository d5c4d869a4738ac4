package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/mocks"
	"pulse-lab/sink"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChannel(t *testing.T) {
	req := require.New(t)
	req.Equal("pulse:AB12X9:s1", Channel(event.NewChange(event.TallyChanged, "AB12X9", "s1", "P1")))
	req.Equal("pulse:AB12X9:_", Channel(event.NewChange(event.PromptChanged, "AB12X9", "s1", "presenter")))
	req.Equal("pulse:AB12X9:_", Channel(event.NewChange(event.SessionEnded, "AB12X9", "", "")))
}

func TestPublisher_SkipsRelayedChanges(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// A nil client would panic if the publisher tried to use it
	publisher := NewPublisher(log, nil, "instance-a")
	c := event.NewChange(event.TallyChanged, "AB12X9", "s1", "P1")
	c.Instance = "instance-b"

	req.NoError(publisher.Consume(context.Background(), c))
}

func TestRelayWorker_Relay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	notifier := mocks.NewMockChangeNotifier(ctrl)
	worker := NewRelayWorker(log, nil, notifier, "instance-a")
	ctx := context.Background()

	remote := event.NewChange(event.TallyChanged, "AB12X9", "s1", "P1")
	remote.Instance = "instance-b"
	payload, err := json.Marshal(remote)
	require.NoError(t, err)

	t.Run("changes from other instances are injected", func(t *testing.T) {
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, c event.Change) {
				require.Equal(t, remote.ID, c.ID)
				require.Equal(t, "instance-b", c.Instance)
			}).Times(1)
		worker.relay(ctx, &goredis.Message{Channel: "pulse:AB12X9:s1", Payload: string(payload)})
	})

	t.Run("own echoes and garbage are dropped", func(t *testing.T) {
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
		own := remote
		own.Instance = "instance-a"
		ownPayload, err := json.Marshal(own)
		require.NoError(t, err)
		worker.relay(ctx, &goredis.Message{Channel: "pulse:AB12X9:s1", Payload: string(ownPayload)})
		worker.relay(ctx, &goredis.Message{Channel: "pulse:AB12X9:s1", Payload: "{not json"})
		worker.relay(ctx, &goredis.Message{Channel: "pulse:AB12X9:s1", Payload: "{}"})
	})
}

// relayNotifier feeds relayed changes straight into a sink.
type relayNotifier struct {
	sink contract.EventSink
}

func (n relayNotifier) Notify(ctx context.Context, c event.Change) { _ = n.sink.Consume(ctx, c) }
func (n relayNotifier) Subscribe(contract.Subscription)            {}
func (n relayNotifier) Unsubscribe(string)                         {}

func TestRedis_CrossInstance(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, log, Options{Addr: addr, MaxRetries: 3, RetryDelay: 200 * time.Millisecond})
	req.NoError(err)
	defer client.Close()

	// Given instance B relaying into its local bus
	received := sink.NewSignalSink(4, nil)
	relay := NewRelayWorker(log, client, relayNotifier{sink: received}, "instance-b")
	go func() { _ = relay.Run(ctx) }()

	// When instance A publishes a change
	publisher := NewPublisher(log, client, "instance-a")
	c := event.NewChange(event.TallyChanged, "AB12X9", "s1", "P1")
	c.Instance = "instance-a"
	req.Eventually(func() bool {
		_ = publisher.Consume(ctx, c)
		select {
		case got := <-received.C:
			return got.ID == c.ID
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}
