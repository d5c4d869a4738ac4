package sink

import (
	"context"
	"pulse-lab/domain/event"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalSink_FiltersAndCoalesces(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given a sink following the tally of slide s1
	s := NewSignalSink(1, func(c event.Change) bool { return c.Concerns("s1") })

	// When unrelated and related changes arrive
	req.NoError(s.Consume(ctx, event.NewChange(event.TallyChanged, "AB12X9", "s2", "P1")))
	req.NoError(s.Consume(ctx, event.NewChange(event.PromptChanged, "AB12X9", "s3", "")))
	first := event.NewChange(event.TallyChanged, "AB12X9", "s1", "P1")
	req.NoError(s.Consume(ctx, first))
	req.NoError(s.Consume(ctx, event.NewChange(event.TallyChanged, "AB12X9", "s1", "P2")))

	// Then only the first related change is pending
	req.Len(s.C, 1)
	req.Equal(first.ID, (<-s.C).ID)
}

func TestSignalSink_SessionEndedAlwaysPasses(t *testing.T) {
	req := require.New(t)
	s := NewSignalSink(0, func(c event.Change) bool { return c.Concerns("") })

	req.NoError(s.Consume(context.Background(), event.NewChange(event.SessionEnded, "AB12X9", "", "")))

	req.Len(s.C, 1)
	req.Equal(1, cap(s.C))
}
