package poll

import (
	"strings"
	"time"
)

type SessionID string

// ParseSessionID normalizes a code as typed by a person: codes are upper case.
func ParseSessionID(s string) SessionID {
	return SessionID(strings.ToUpper(strings.TrimSpace(s)))
}

type SlideID string

// ParticipantID is generated and persisted by the participant's client and sent on every call.
type ParticipantID string

type Session struct {
	ID        SessionID
	CreatedAt time.Time
}

// Expired reports whether the session outlived ttl. A zero ttl never expires.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}

type SubmitResult string

const (
	Accepted SubmitResult = "accepted"
	Ignored  SubmitResult = "ignored"
)
