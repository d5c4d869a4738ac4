// Package runtime wires change propagation and background work.
// It holds no poll rules: the services decide what changed, runtime carries it.
package runtime

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/observability"
	"pulse-lab/runtime/workers"
	"sync"
	"time"
)

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       *Registry
	notifier       *Notifier
	permanentSinks []contract.EventSink
	extraWorkers   []contract.Worker
	sinkTimeout    time.Duration
	started        bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	monitor *observability.Monitor, bufferSize int, sinkTimeout time.Duration, instance string) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		notifier:    NewNotifier(log, registry, monitor, bufferSize, instance),
		sinkTimeout: sinkTimeout,
	}
}

func (o *Orchestrator) Notifier() contract.ChangeNotifier { return o.notifier }

// LocalNotifier exposes the concrete bus for components that inject relayed changes.
func (o *Orchestrator) LocalNotifier() *Notifier { return o.notifier }

// Add registers sinks receiving every change regardless of session.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// AddWorkers registers background workers supervised alongside the fanout.
func (o *Orchestrator) AddWorkers(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, w...)
}

// Start builds the fanout pipeline and runs every worker under the supervisor in
// the background. It returns once the workers are launched.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = true
	fanout := workers.NewEventFanout(o.log, o.registry, o.notifier.Changes(), o.sinkTimeout, o.permanentSinks...)
	o.supervisor.Add(fanout)
	o.supervisor.Add(o.extraWorkers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "workers", 1+len(o.extraWorkers))
	go o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised context; queued changes not yet fanned out are dropped.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
