package workers

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/observability"
	"time"
)

// SessionJanitor ends sessions older than their time to live, for presenters who
// never close them.
type SessionJanitor struct {
	log      *slog.Logger
	sessions contract.ISessionRegistry
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSessionJanitor(log *slog.Logger, sessions contract.ISessionRegistry, ttl, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{log: log, sessions: sessions, ttl: ttl, interval: interval, now: time.Now}
}

func (w *SessionJanitor) Run(ctx context.Context) error {
	if w.ttl <= 0 || w.interval <= 0 {
		w.log.Info("Session janitor disabled")
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				return err
			}
		}
	}
}

// Sweep ends every expired session and returns how many were ended.
func (w *SessionJanitor) Sweep(ctx context.Context) (int, error) {
	sessions, err := w.sessions.List(ctx)
	if err != nil {
		return 0, err
	}
	now := w.now()
	ended := 0
	for _, s := range sessions {
		if !s.Expired(now, w.ttl) {
			continue
		}
		if err := w.sessions.EndSession(ctx, s.ID); err != nil {
			w.log.Warn("Could not end expired session", "session", s.ID, "error", err)
			continue
		}
		observability.SessionsEnded.WithLabelValues("expired").Inc()
		ended++
	}
	if ended > 0 {
		w.log.Info("Expired sessions ended", "count", ended)
	}
	return ended, nil
}
