package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const deleteBatch = 256

// SessionStore keeps sessions in redis so every instance sees the same codes.
type SessionStore struct {
	client goredis.UniversalClient
	log    *slog.Logger
}

func NewSessionStore(client goredis.UniversalClient, log *slog.Logger) *SessionStore {
	return &SessionStore{client: client, log: log}
}

// Create claims the code with HSETNX; false means another instance holds it.
func (s *SessionStore) Create(ctx context.Context, session poll.Session) (bool, error) {
	created, err := s.client.HSetNX(ctx, sessionsKey, string(session.ID),
		strconv.FormatInt(session.CreatedAt.UnixNano(), 10)).Result()
	if err != nil {
		return false, fmt.Errorf("create session %s: %w", session.ID, err)
	}
	return created, nil
}

func (s *SessionStore) Get(ctx context.Context, id poll.SessionID) (*poll.Session, error) {
	val, err := s.client.HGet(ctx, sessionsKey, string(id)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return s.decode(id, val), nil
}

func (s *SessionStore) List(ctx context.Context) ([]poll.Session, error) {
	all, err := s.client.HGetAll(ctx, sessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]poll.Session, 0, len(all))
	for id, val := range all {
		if session := s.decode(poll.SessionID(id), val); session != nil {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

// Delete drops the session entry first. Every write script checks that entry, so
// nothing lands under the scope once it is gone and the scan below sees it all.
func (s *SessionStore) Delete(ctx context.Context, id poll.SessionID) error {
	if err := s.client.HDel(ctx, sessionsKey, string(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	deleted := 0
	iter := s.client.Scan(ctx, 0, scopePattern(id), deleteBatch).Iterator()
	batch := make([]string, 0, deleteBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("delete session %s records: %w", id, err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan session %s: %w", id, err)
	}
	if err := flush(); err != nil {
		return err
	}
	s.log.Debug("Session deleted", "session", id, "records", deleted)
	return nil
}

func (s *SessionStore) decode(id poll.SessionID, val string) *poll.Session {
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		s.log.Warn("Unreadable session record, treated as absent", "session", id, "error", err)
		return nil
	}
	return &poll.Session{ID: id, CreatedAt: time.Unix(0, nanos).UTC()}
}
