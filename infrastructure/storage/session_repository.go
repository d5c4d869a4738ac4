package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, log: log}
}

// Create stores the session unless its code is already taken.
// It returns false, without error, on a collision.
func (r *SessionRepository) Create(_ context.Context, session poll.Session) (bool, error) {
	created := false
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(sessionKey(session.ID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		bytes, err := proto.Marshal(timestamppb.New(session.CreatedAt))
		if err != nil {
			return err
		}
		created = true
		return txn.Set(sessionKey(session.ID), bytes)
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create session %s: %w", session.ID, err)
	}
	return created, nil
}

// Get returns nil when the session does not exist or its record is unreadable.
func (r *SessionRepository) Get(_ context.Context, id poll.SessionID) (*poll.Session, error) {
	var session *poll.Session
	err := r.db.View(func(txn *badger.Txn) error {
		s, err := getSession(txn, id, r.log)
		session = s
		return err
	})
	return session, err
}

func (r *SessionRepository) List(_ context.Context) ([]poll.Session, error) {
	var sessions []poll.Session
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionIndexPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := poll.SessionID(strings.TrimPrefix(string(item.Key()), sessionIndexPrefix))
			err := item.Value(func(val []byte) error {
				var ts timestamppb.Timestamp
				if err := proto.Unmarshal(val, &ts); err != nil {
					r.log.Warn("Skipping unreadable session record", "session", id, "error", err)
					return nil
				}
				sessions = append(sessions, poll.Session{ID: id, CreatedAt: ts.AsTime()})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return sessions, err
}

// Delete removes the session entry and every record scoped to it.
// Deleting an unknown session is a no-op.
func (r *SessionRepository) Delete(_ context.Context, id poll.SessionID) error {
	// The session entry goes first: a submission still in flight has read it and
	// will conflict, so nothing is written under the scope after the scan below.
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	}); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := sessionScope(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan session %s: %w", id, err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("delete session %s records: %w", id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("delete session %s records: %w", id, err)
	}
	r.log.Debug("Session deleted", "session", id, "records", len(keys))
	return nil
}

func getSession(txn *badger.Txn, id poll.SessionID, log *slog.Logger) (*poll.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ts timestamppb.Timestamp
	err = item.Value(func(val []byte) error {
		return proto.Unmarshal(val, &ts)
	})
	if err != nil {
		log.Warn("Unreadable session record, treated as absent", "session", id, "error", err)
		return nil, nil
	}
	return &poll.Session{ID: id, CreatedAt: ts.AsTime()}, nil
}
