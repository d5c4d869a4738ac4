package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/codec"

	"github.com/dgraph-io/badger/v4"
)

type PromptRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewPromptRepository(db *badger.DB, log *slog.Logger) *PromptRepository {
	return &PromptRepository{db: db, log: log}
}

// Publish overwrites the active prompt of the session and records it as the
// slide's prompt. Counters live under their own keys and are never touched here,
// so republishing a slide keeps its responses.
// It returns false when the session does not exist.
func (r *PromptRepository) Publish(_ context.Context, sessionID poll.SessionID, prompt poll.Prompt) (bool, error) {
	bytes, err := codec.MarshalPrompt(prompt)
	if err != nil {
		return false, err
	}

	published := false
	err = retryOnConflict(defaultAttempts, func() error {
		published = false
		return r.db.Update(func(txn *badger.Txn) error {
			session, err := getSession(txn, sessionID, r.log)
			if err != nil || session == nil {
				return err
			}
			if err := txn.Set(promptKey(sessionID), bytes); err != nil {
				return err
			}
			if err := txn.Set(slideKey(sessionID, prompt.Slide()), bytes); err != nil {
				return err
			}
			published = true
			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("publish prompt on %s: %w", sessionID, err)
	}
	return published, nil
}

// Active returns the prompt currently broadcast, nil when there is none or when
// the stored record cannot be decoded.
func (r *PromptRepository) Active(_ context.Context, sessionID poll.SessionID) (poll.Prompt, error) {
	var prompt poll.Prompt
	err := r.db.View(func(txn *badger.Txn) error {
		p, err := activePrompt(txn, sessionID, r.log)
		prompt = p
		return err
	})
	return prompt, err
}

// ForSlide returns the prompt last published for a slide, active or not.
func (r *PromptRepository) ForSlide(_ context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Prompt, error) {
	var prompt poll.Prompt
	err := r.db.View(func(txn *badger.Txn) error {
		session, err := getSession(txn, sessionID, r.log)
		if err != nil || session == nil {
			return err
		}
		p, err := readPrompt(txn, slideKey(sessionID, slideID), sessionID, r.log)
		prompt = p
		return err
	})
	return prompt, err
}

func activePrompt(txn *badger.Txn, sessionID poll.SessionID, log *slog.Logger) (poll.Prompt, error) {
	session, err := getSession(txn, sessionID, log)
	if err != nil || session == nil {
		return nil, err
	}
	return readPrompt(txn, promptKey(sessionID), sessionID, log)
}

func readPrompt(txn *badger.Txn, key []byte, sessionID poll.SessionID, log *slog.Logger) (poll.Prompt, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var prompt poll.Prompt
	if err := item.Value(func(val []byte) error {
		var err error
		prompt, err = codec.UnmarshalPrompt(val)
		return err
	}); err != nil {
		log.Warn("Unreadable prompt record, treated as absent", "session", sessionID, "error", err)
		return nil, nil
	}
	return prompt, nil
}
