package workers

import (
	"context"
	"fmt"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/errors"
	"pulse-lab/observability"
	"sync"
	"time"
)

const defaultRestartInterval = 200 * time.Millisecond

// Supervisor runs background workers (fanout, janitor, reporter, redis relay)
// in their own goroutines. A worker returning nil is done; an error or a panic
// restarts it after restartInterval, until the supervised context ends.
type Supervisor struct {
	log             *slog.Logger
	restartInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	workers []contract.Worker
	wg      sync.WaitGroup
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Run blocks until every added worker has returned. Cancelling ctx or calling
// Stop ends them all.
func (s *Supervisor) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	pending := append([]contract.Worker(nil), s.workers...)
	s.mu.Unlock()

	for _, w := range pending {
		s.Start(ctx, w)
	}
	s.wg.Wait()
}

// Start supervises one worker under ctx. Workers started this way are awaited
// by Run as well.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	name := contract.GetWorkerName(worker)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, name, worker)
	}()
}

func (s *Supervisor) supervise(ctx context.Context, name string, worker contract.Worker) {
	for restarts := 0; ; restarts++ {
		if ctx.Err() != nil {
			return
		}
		err := runOnce(ctx, worker)
		switch {
		case err == nil:
			s.log.Info("Worker finished", "name", name)
			return
		case ctx.Err() != nil:
			s.log.Info("Worker stopped", "name", name)
			return
		}

		observability.WorkerRestarts.WithLabelValues(name).Inc()
		s.log.Warn("Worker crashed, restarting", "name", name, "restarts", restarts+1, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartInterval):
		}
	}
}

func runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels the workers started by Run.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
