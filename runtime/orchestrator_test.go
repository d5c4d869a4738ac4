package runtime

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/mocks"
	"pulse-lab/observability"
	"pulse-lab/runtime/workers"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	sup := workers.NewSupervisor(log, 50*time.Millisecond)
	return NewOrchestrator(log, sup, NewRegistry(), observability.NewMonitor(log), 16, time.Second, "instance-a")
}

func TestOrchestrator_DeliversToPermanentAndSessionSinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	o := newTestOrchestrator(t)
	permanent := mocks.NewMockEventSink(ctrl)
	sessionSink := mocks.NewMockEventSink(ctrl)
	otherSink := mocks.NewMockEventSink(ctrl)

	received := make(chan event.Change, 2)
	record := func(_ context.Context, c event.Change) error {
		received <- c
		return nil
	}

	// Given a permanent sink and one subscriber on each of two sessions
	o.Add(permanent)
	o.Notifier().Subscribe(contract.Subscription{ID: "sub-1", Owner: "P1", Session: "AB12X9", Sink: sessionSink})
	o.Notifier().Subscribe(contract.Subscription{ID: "sub-2", Owner: "P2", Session: "ZZ99ZZ", Sink: otherSink})
	permanent.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(1)
	sessionSink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(1)
	otherSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req.NoError(o.Start(ctx))
	defer o.Stop()

	// When a change of the first session is notified
	o.Notifier().Notify(ctx, event.NewChange(event.PromptChanged, "AB12X9", "s1", "presenter"))

	// Then the permanent sink and the session subscriber get it, stamped with the instance
	for i := 0; i < 2; i++ {
		select {
		case c := <-received:
			req.Equal(event.PromptChanged, c.Kind)
			req.Equal("instance-a", c.Instance)
		case <-time.After(time.Second):
			req.Fail("change not delivered")
		}
	}
}

func TestOrchestrator_RunsExtraWorkers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	o := newTestOrchestrator(t)
	worker := mocks.NewMockWorker(ctrl)

	started := make(chan struct{})
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}).Times(1)

	// Given an extra worker
	o.AddWorkers(worker)

	// When the orchestrator starts twice
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req.NoError(o.Start(ctx))
	req.NoError(o.Start(ctx))

	// Then the worker runs once under supervision
	select {
	case <-started:
	case <-time.After(time.Second):
		req.Fail("worker never started")
	}
	o.Stop()
}
