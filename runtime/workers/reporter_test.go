package workers

import (
	"context"
	"log/slog"
	"pulse-lab/observability"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestReporterWorker_SamplesProcess(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitor := observability.NewMonitor(log)
	worker := NewReporterWorker(log, monitor, 10*time.Millisecond)

	// Given a running reporter
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// When it stops with its context
	err := worker.Run(ctx)

	// Then the monitor holds the resident memory of this process
	req.NoError(err)
	req.Positive(monitor.Latest().RSSMb)
	req.GreaterOrEqual(monitor.Latest().CPUPercent, 0.0)
}

func TestReporterWorker_DisabledWithoutInterval(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	worker := NewReporterWorker(log, observability.NewMonitor(log), 0)

	req.NoError(worker.Run(context.Background()))
}
