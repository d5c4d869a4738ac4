package runtime

import (
	"context"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, c event.Change) error {
	return nil
}

func subscription(owner string, session poll.SessionID, sink contract.EventSink) contract.Subscription {
	return contract.Subscription{ID: uuid.NewString(), Owner: owner, Session: session, Sink: sink}
}

func TestRegistry_Subscribe_One_Session_One_Subscription(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := Sink{name: "presenter"}
	sub := subscription("presenter", "AB12X9", sink)

	// Given nobody listens
	req.Empty(registry.Subscriptions)
	req.Empty(registry.SessionMembers)

	// When a subscription is registered
	registry.Subscribe(sub)

	// Then
	req.Len(registry.Subscriptions, 1)
	req.Len(registry.SessionMembers, 1)
	req.Contains(registry.SessionMembers["AB12X9"], sub.ID)
	req.Equal([]contract.EventSink{sink}, registry.GetSinksForSession("AB12X9", ""))
	req.Equal(1, registry.Len())
}

func TestRegistry_GetSinksForSession_SkipsOwner(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	presenter := Sink{name: "presenter"}
	participant := Sink{name: "participant"}

	// Given a presenter and a participant listening to the same session
	registry.Subscribe(subscription("presenter", "AB12X9", presenter))
	registry.Subscribe(subscription("P1", "AB12X9", participant))

	// When the participant writes
	sinks := registry.GetSinksForSession("AB12X9", "P1")

	// Then only the presenter is notified
	req.Equal([]contract.EventSink{presenter}, sinks)
	req.Len(registry.GetSinksForSession("AB12X9", ""), 2)
	req.Nil(registry.GetSinksForSession("OTHER1", ""))
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := subscription("P1", "AB12X9", Sink{name: "first"})
	second := subscription("P2", "AB12X9", Sink{name: "second"})
	registry.Subscribe(first)
	registry.Subscribe(second)

	// When one subscription leaves
	registry.Unsubscribe(first.ID)

	// Then one remains
	req.Len(registry.Subscriptions, 1)
	req.Len(registry.SessionMembers["AB12X9"], 1)

	// When the last one leaves, and an unknown id is removed
	registry.Unsubscribe(second.ID)
	registry.Unsubscribe("unknown")

	// Then the session entry is gone
	req.Empty(registry.Subscriptions)
	req.Empty(registry.SessionMembers)
	req.Nil(registry.GetSinksForSession("AB12X9", ""))
}

func TestRegistry_Resubscribe_MovesSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sub := subscription("P1", "AB12X9", Sink{name: "first"})
	registry.Subscribe(sub)

	// When the same subscription id is reused for another session
	sub.Session = "CD34Y7"
	registry.Subscribe(sub)

	// Then it only belongs to the new one
	req.Nil(registry.GetSinksForSession("AB12X9", ""))
	req.Len(registry.GetSinksForSession("CD34Y7", ""), 1)
	req.Equal(1, registry.Len())
}
