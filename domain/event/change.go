package event

import (
	"fmt"
	"pulse-lab/domain/poll"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	PromptChanged Kind = "prompt_changed"
	TallyChanged  Kind = "tally_changed"
	SessionEnded  Kind = "session_ended"
)

// Change signals that a record of a session was written. It carries no value:
// receivers re-read the record it points to.
type Change struct {
	ID      uuid.UUID      `json:"id"`
	Kind    Kind           `json:"kind"`
	Session poll.SessionID `json:"session"`
	Slide   poll.SlideID   `json:"slide,omitempty"`
	// Origin is the context that made the write; it is not notified back.
	Origin string `json:"origin,omitempty"`
	// Instance is the process that made the write, used to drop relayed echoes.
	Instance string    `json:"instance,omitempty"`
	At       time.Time `json:"at"`
}

func NewChange(kind Kind, session poll.SessionID, slide poll.SlideID, origin string) Change {
	return Change{
		ID:      uuid.New(),
		Kind:    kind,
		Session: session,
		Slide:   slide,
		Origin:  origin,
		At:      time.Now().UTC(),
	}
}

func (c Change) SessionID() poll.SessionID { return c.Session }

// Key names the mutated record.
func (c Change) Key() string {
	switch c.Kind {
	case PromptChanged:
		return fmt.Sprintf("%s/prompt", c.Session)
	case TallyChanged:
		return fmt.Sprintf("%s/tally/%s", c.Session, c.Slide)
	default:
		return string(c.Session)
	}
}

// Concerns reports whether a watcher of slide must re-read after this change.
// An empty slide means the watcher follows the prompt record.
func (c Change) Concerns(slide poll.SlideID) bool {
	if c.Kind == SessionEnded {
		return true
	}
	if slide == "" {
		return c.Kind == PromptChanged
	}
	return c.Kind == TallyChanged && c.Slide == slide
}
