package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/grpc/client"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const simulatedSlide poll.SlideID = "sim"

// pollAPI is the part of the client the simulation drives.
type pollAPI interface {
	CreateSession(ctx context.Context) (poll.Session, string, error)
	EndSession(ctx context.Context, session poll.SessionID) error
	Publish(ctx context.Context, session poll.SessionID, prompt poll.Prompt, origin string) (poll.Prompt, bool, error)
	Submit(ctx context.Context, session poll.SessionID, slide poll.SlideID, participant poll.ParticipantID, response poll.Response) (client.SubmitReply, error)
	Tally(ctx context.Context, session poll.SessionID, slide poll.SlideID) (client.TallyReply, error)
	WatchTally(ctx context.Context, session poll.SessionID, slide poll.SlideID, owner string) (<-chan poll.Tally, <-chan error, error)
}

type Report struct {
	Session      poll.SessionID
	Accepted     int64
	Ignored      int64
	Total        uint64
	WatcherTotal uint64
	Elapsed      time.Duration
}

// Simulation plays one presenter and a crowd of participants, some of whom vote
// twice, then checks the tally counts every participant exactly once.
type Simulation struct {
	log *slog.Logger
	api pollAPI
	cfg Config
}

func NewSimulation(log *slog.Logger, api pollAPI, cfg Config) *Simulation {
	return &Simulation{log: log, api: api, cfg: cfg}
}

func (s *Simulation) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	session, joinURL, err := s.api.CreateSession(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("create session: %w", err)
	}
	report := Report{Session: session.ID}
	s.log.Info("Session opened", "session", session.ID, "join", joinURL)
	defer func() {
		if err := s.api.EndSession(context.WithoutCancel(ctx), session.ID); err != nil {
			s.log.Warn("Session not ended", "session", session.ID, "error", err)
		}
	}()

	prompt := poll.MultipleChoice{
		SlideID:  simulatedSlide,
		Question: "Simulated question",
		Options:  lo.Times(s.cfg.Options, func(i int) string { return fmt.Sprintf("Option %d", i+1) }),
	}
	_, published, err := s.api.Publish(ctx, session.ID, prompt, "simulator")
	if err != nil {
		return report, fmt.Errorf("publish: %w", err)
	}
	if !published {
		return report, fmt.Errorf("publish: session %s not found", session.ID)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	tallies, _, err := s.api.WatchTally(watchCtx, session.ID, simulatedSlide, "simulator")
	if err != nil {
		return report, fmt.Errorf("watch tally: %w", err)
	}
	var watched atomic.Uint64
	go func() {
		for t := range tallies {
			watched.Store(t.Total())
		}
	}()

	var accepted, ignored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Concurrency))
	for i := 0; i < s.cfg.Participants; i++ {
		participant := poll.ParticipantID(fmt.Sprintf("sim-%d", i))
		g.Go(func() error {
			attempts := 1
			if rand.Float64() < s.cfg.Duplicates {
				attempts = 2
			}
			for a := 0; a < attempts; a++ {
				reply, err := s.api.Submit(gctx, session.ID, simulatedSlide, participant,
					poll.OptionResponse{Index: rand.IntN(len(prompt.Options))})
				if err != nil {
					return fmt.Errorf("submit for %s: %w", participant, err)
				}
				if reply.Result == poll.Accepted {
					accepted.Add(1)
				} else {
					ignored.Add(1)
				}
			}
			return nil
		})
	}
	err = g.Wait()
	report.Accepted, report.Ignored = accepted.Load(), ignored.Load()
	if err != nil {
		return report, err
	}

	reply, err := s.api.Tally(ctx, session.ID, simulatedSlide)
	if err != nil {
		return report, fmt.Errorf("read tally: %w", err)
	}
	report.Total = reply.Tally.Total()
	if report.Total != uint64(s.cfg.Participants) || report.Accepted != int64(s.cfg.Participants) {
		return report, fmt.Errorf("tally %d and %d accepted for %d participants",
			report.Total, report.Accepted, s.cfg.Participants)
	}

	deadline := time.Now().Add(s.cfg.Settle)
	for watched.Load() != report.Total && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	report.WatcherTotal = watched.Load()
	report.Elapsed = time.Since(start)
	if report.WatcherTotal != report.Total {
		return report, fmt.Errorf("watcher settled on %d, tally is %d", report.WatcherTotal, report.Total)
	}
	return report, nil
}
