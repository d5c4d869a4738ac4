package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/grpc/client"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// fakePoll counts one response per participant, like the server.
type fakePoll struct {
	mu      sync.Mutex
	marks   map[poll.ParticipantID]bool
	tally   poll.Tally
	watcher chan poll.Tally
	ended   bool
	lossy   bool
	missing bool
	failing error
}

func newFakePoll() *fakePoll {
	return &fakePoll{marks: map[poll.ParticipantID]bool{}, tally: poll.Tally{}, watcher: make(chan poll.Tally, 1024)}
}

func (f *fakePoll) CreateSession(context.Context) (poll.Session, string, error) {
	return poll.Session{ID: "SIM123", CreatedAt: time.Now()}, "http://localhost/join/SIM123", nil
}

func (f *fakePoll) EndSession(context.Context, poll.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = true
	return nil
}

func (f *fakePoll) Publish(_ context.Context, _ poll.SessionID, p poll.Prompt, _ string) (poll.Prompt, bool, error) {
	return p, !f.missing, nil
}

func (f *fakePoll) Submit(_ context.Context, _ poll.SessionID, _ poll.SlideID, participant poll.ParticipantID,
	r poll.Response) (client.SubmitReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return client.SubmitReply{}, f.failing
	}
	if f.marks[participant] {
		return client.SubmitReply{Result: poll.Ignored}, nil
	}
	f.marks[participant] = true
	f.tally[r.Key()]++
	if !f.lossy {
		f.watcher <- f.tally.Clone()
	}
	return client.SubmitReply{Result: poll.Accepted, Key: r.Key(), Tally: f.tally.Clone()}, nil
}

func (f *fakePoll) Tally(context.Context, poll.SessionID, poll.SlideID) (client.TallyReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return client.TallyReply{Tally: f.tally.Clone()}, nil
}

func (f *fakePoll) WatchTally(context.Context, poll.SessionID, poll.SlideID, string) (<-chan poll.Tally, <-chan error, error) {
	return f.watcher, make(chan error), nil
}

func config(participants int) Config {
	return Config{Participants: participants, Concurrency: 8, Options: 3, Duplicates: 0.5, Settle: 200 * time.Millisecond}
}

func TestSimulation_CountsEveryParticipantOnce(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	api := newFakePoll()

	// Given 100 participants, half of them voting twice
	sim := NewSimulation(log, api, config(100))

	// When the simulation runs
	report, err := sim.Run(context.Background())

	// Then the tally and the watcher both settle on 100 and the session is ended
	req.NoError(err)
	req.Equal(int64(100), report.Accepted)
	req.Equal(uint64(100), report.Total)
	req.Equal(uint64(100), report.WatcherTotal)
	req.True(api.ended)

	var sum uint64
	for k, v := range api.tally {
		idx, err := strconv.Atoi(k)
		req.NoError(err)
		req.Less(idx, 3)
		sum += v
	}
	req.Equal(uint64(100), sum)
}

func TestSimulation_FailsWhenWatcherLags(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	api := newFakePoll()
	api.lossy = true

	// Given a server that never notifies the presenter
	sim := NewSimulation(log, api, config(10))

	// When the simulation runs
	_, err := sim.Run(context.Background())

	// Then the stale watcher is reported
	req.ErrorContains(err, "watcher settled on 0")
}

func TestSimulation_SessionGoneBeforePublish(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	api := newFakePoll()
	api.missing = true

	// Given a server that no longer knows the session
	sim := NewSimulation(log, api, config(10))

	// When the simulation runs
	_, err := sim.Run(context.Background())

	// Then the error names the session instead of a nil cause
	req.EqualError(err, "publish: session SIM123 not found")
}

func TestSimulation_StopsOnFirstFailedSubmit(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	api := newFakePoll()
	api.failing = errors.New("unavailable")

	// Given a server rejecting every submission
	sim := NewSimulation(log, api, config(50))

	// When the simulation runs
	report, err := sim.Run(context.Background())

	// Then the failure is reported and the session is still ended
	req.ErrorContains(err, "unavailable")
	req.Zero(report.Accepted)
	req.True(api.ended)
}
