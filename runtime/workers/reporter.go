package workers

import (
	"context"
	"log/slog"
	"os"
	"pulse-lab/observability"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ReporterWorker samples the process, refreshes the monitor and logs a one-line
// summary at each interval.
type ReporterWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
	proc     *process.Process
}

func NewReporterWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, monitor: monitor, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	if w.proc == nil {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			w.log.Warn("Process sampling disabled", "error", err)
		}
		w.proc = p
	}
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report(startTime)
			return nil
		case <-ticker.C:
			w.report(startTime)
		}
	}
}

func (w *ReporterWorker) sample() {
	if w.proc == nil {
		return
	}
	cpu, err := w.proc.CPUPercent()
	if err != nil {
		w.log.Debug("Error while reading process cpu usage", "error", err)
		return
	}
	mem, err := w.proc.MemoryInfo()
	if err != nil {
		w.log.Debug("Error while reading process memory", "error", err)
		return
	}
	w.monitor.ProcessSampled(cpu, mem.RSS)
}

func (w *ReporterWorker) report(startTime time.Time) {
	w.sample()
	stats := w.monitor.Refresh()
	w.log.Info("Live stats",
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"accepted", stats.Accepted,
		"ignored", stats.Ignored,
		"published", stats.Published,
		"responses_per_second", stats.ResponsesPerSecond,
		"subscriptions", stats.Subscriptions,
		"dropped_notifications", stats.DroppedNotifications,
		"mem_mb", stats.AllocMemMb,
		"rss_mb", stats.RSSMb,
		"cpu_percent", stats.CPUPercent,
	)
}
