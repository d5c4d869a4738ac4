package services

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/observability"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CodeChars avoids characters that are easily confused when read aloud or from a
// projector (I/1, O/0).
const (
	CodeChars         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	DefaultCodeLength = 6
	maxCodeAttempts   = 10
)

type SessionRegistry struct {
	log      *slog.Logger
	repo     contract.ISessionRepository
	notifier contract.ChangeNotifier
	newCode  func() (string, error)
	now      func() time.Time
}

func NewSessionRegistry(log *slog.Logger, repo contract.ISessionRepository,
	notifier contract.ChangeNotifier, codeLength int) *SessionRegistry {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	return &SessionRegistry{
		log:      log,
		repo:     repo,
		notifier: notifier,
		newCode:  func() (string, error) { return GenerateCode(codeLength) },
		now:      time.Now,
	}
}

// CreateSession issues a fresh code, retrying on collisions.
func (r *SessionRegistry) CreateSession(ctx context.Context) (poll.Session, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := r.newCode()
		if err != nil {
			return poll.Session{}, err
		}
		session := poll.Session{ID: poll.SessionID(code), CreatedAt: r.now().UTC()}
		created, err := r.repo.Create(ctx, session)
		if err != nil {
			return poll.Session{}, err
		}
		if created {
			observability.SessionsCreated.Inc()
			r.log.Info("Session created", "session", session.ID)
			return session, nil
		}
		r.log.Debug("Session code collision", "code", code, "attempt", i+1)
	}
	return poll.Session{}, errors.ErrSessionCodeExhausted
}

// EndSession destroys the session and everything scoped to it. Unknown or
// malformed ids are a no-op.
func (r *SessionRegistry) EndSession(ctx context.Context, id poll.SessionID) error {
	if poll.ValidateIdentifier(string(id)) != nil {
		return nil
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		r.log.Warn("Could not end session", "session", id, "error", err)
		return err
	}
	r.notifier.Notify(ctx, event.NewChange(event.SessionEnded, id, "", ""))
	r.log.Info("Session ended", "session", id)
	return nil
}

func (r *SessionRegistry) Exists(ctx context.Context, id poll.SessionID) (bool, error) {
	if poll.ValidateIdentifier(string(id)) != nil {
		return false, nil
	}
	session, err := r.repo.Get(ctx, id)
	return session != nil, err
}

func (r *SessionRegistry) List(ctx context.Context) ([]poll.Session, error) {
	return r.repo.List(ctx)
}

// GenerateCode draws a nanoid of length characters from CodeChars.
func GenerateCode(length int) (string, error) {
	return gonanoid.Generate(CodeChars, length)
}
