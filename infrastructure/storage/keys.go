package storage

import (
	"fmt"
	"pulse-lab/domain/poll"
)

// Every record of a session except its own entry lives under the session prefix,
// so ending a session is a single prefix deletion.
const (
	sessionIndexPrefix = "session:"
	sessionScopePrefix = "s:"
)

func sessionKey(id poll.SessionID) []byte {
	return []byte(sessionIndexPrefix + string(id))
}

func sessionScope(id poll.SessionID) []byte {
	return []byte(fmt.Sprintf("%s%s:", sessionScopePrefix, id))
}

func promptKey(id poll.SessionID) []byte {
	return []byte(fmt.Sprintf("%s%s:prompt", sessionScopePrefix, id))
}

func slideKey(id poll.SessionID, slide poll.SlideID) []byte {
	return []byte(fmt.Sprintf("%s%s:slide:%s", sessionScopePrefix, id, slide))
}

func tallyPrefix(id poll.SessionID, slide poll.SlideID) []byte {
	return []byte(fmt.Sprintf("%s%s:tally:%s:", sessionScopePrefix, id, slide))
}

func tallyKey(id poll.SessionID, slide poll.SlideID, key string) []byte {
	return append(tallyPrefix(id, slide), key...)
}

func markKey(id poll.SessionID, slide poll.SlideID, participant poll.ParticipantID) []byte {
	return []byte(fmt.Sprintf("%s%s:mark:%s:%s", sessionScopePrefix, id, slide, participant))
}
