package storage

import (
	"errors"
	"log/slog"
	"pulse-lab/domain/poll"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ParticipantGuard keeps the one-shot mark of a participant on a slide.
// It works inside the caller's transaction so the mark and the tally move together.
type ParticipantGuard struct {
	log *slog.Logger
}

func NewParticipantGuard(log *slog.Logger) ParticipantGuard {
	return ParticipantGuard{log: log}
}

// Claim writes the mark and returns true, or returns false when the participant
// already holds one. An unreadable mark still counts as held.
func (g ParticipantGuard) Claim(txn *badger.Txn, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID, key string) (bool, error) {
	k := markKey(sessionID, slideID, participantID)
	_, err := txn.Get(k)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return false, err
	}
	bytes, err := proto.Marshal(wrapperspb.String(key))
	if err != nil {
		return false, err
	}
	return true, txn.Set(k, bytes)
}

// Lookup returns the committed response key, if any.
func (g ParticipantGuard) Lookup(txn *badger.Txn, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID) (string, bool, error) {
	item, err := txn.Get(markKey(sessionID, slideID, participantID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var mark wrapperspb.StringValue
	if err := item.Value(func(val []byte) error {
		return proto.Unmarshal(val, &mark)
	}); err != nil {
		g.log.Warn("Unreadable participant mark, treated as absent",
			"session", sessionID, "slide", slideID, "participant", participantID, "error", err)
		return "", false, nil
	}
	return mark.GetValue(), true, nil
}
