package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"

	"github.com/dgraph-io/badger/v4"
)

type TallyRepository struct {
	db          *badger.DB
	log         *slog.Logger
	guard       ParticipantGuard
	maxAttempts int
}

func NewTallyRepository(db *badger.DB, log *slog.Logger, guard ParticipantGuard, maxAttempts int) *TallyRepository {
	return &TallyRepository{db: db, log: log, guard: guard, maxAttempts: maxAttempts}
}

// Submit records the participant's response and increments its counter in one
// transaction. Concurrent submissions on the same counter conflict and are retried,
// so no increment is lost.
// The response is ignored when the participant already answered the slide, when
// the slide is not the one currently published in an existing session, or when the
// key does not belong to the prompt read in the transaction.
func (r *TallyRepository) Submit(_ context.Context, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID, key string) (poll.SubmitResult, error) {
	result := poll.Ignored
	err := retryOnConflict(r.maxAttempts, func() error {
		result = poll.Ignored
		return r.db.Update(func(txn *badger.Txn) error {
			prompt, err := activePrompt(txn, sessionID, r.log)
			if err != nil || prompt == nil || prompt.Slide() != slideID {
				return err
			}
			// The prompt may have been republished since the caller validated the response.
			if !poll.AcceptsKey(prompt, key) {
				r.log.Debug("Response no longer fits the active prompt", "session", sessionID,
					"slide", slideID, "key", key)
				return nil
			}
			claimed, err := r.guard.Claim(txn, sessionID, slideID, participantID, key)
			if err != nil || !claimed {
				return err
			}
			if err := increment(txn, tallyKey(sessionID, slideID, key)); err != nil {
				return err
			}
			result = poll.Accepted
			return nil
		})
	})
	if err != nil {
		r.log.Warn("Response not recorded", "session", sessionID, "slide", slideID,
			"participant", participantID, "error", err)
		return poll.Ignored, fmt.Errorf("submit on %s/%s: %w", sessionID, slideID, err)
	}
	return result, nil
}

// Tally returns the counters of a slide; an unknown slide or session yields an empty tally.
func (r *TallyRepository) Tally(_ context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Tally, error) {
	tally := poll.Tally{}
	err := r.db.View(func(txn *badger.Txn) error {
		session, err := getSession(txn, sessionID, r.log)
		if err != nil || session == nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := tallyPrefix(sessionID, slideID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				count, ok := decodeCounter(val)
				if !ok {
					r.log.Warn("Unreadable counter, treated as absent", "session", sessionID,
						"slide", slideID, "key", key)
					return nil
				}
				tally[key] = count
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return tally, err
}

func (r *TallyRepository) Mark(_ context.Context, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID) (string, bool, error) {
	var (
		key   string
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		session, err := getSession(txn, sessionID, r.log)
		if err != nil || session == nil {
			return err
		}
		key, found, err = r.guard.Lookup(txn, sessionID, slideID, participantID)
		return err
	})
	return key, found, err
}

func increment(txn *badger.Txn, key []byte) error {
	var count uint64
	item, err := txn.Get(key)
	switch {
	case err == nil:
		if err := item.Value(func(val []byte) error {
			count, _ = decodeCounter(val)
			return nil
		}); err != nil {
			return err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	return txn.Set(key, encodeCounter(count+1))
}

func encodeCounter(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeCounter(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
