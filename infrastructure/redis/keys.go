package redis

import (
	"fmt"
	"pulse-lab/domain/poll"
	"strings"
)

// Shared records of distributed mode. Session entries live in one hash so a
// single HEXISTS tells every script whether the session is still open; the rest
// sits under pulse:s:{id}: and goes away with a SCAN on that prefix.
const (
	sessionsKey = "pulse:sessions"
	scopePrefix = "pulse:s:"

	fieldSlide   = "slide"
	fieldKind    = "kind"
	fieldOptions = "options"
	fieldRecord  = "record"
)

func scope(id poll.SessionID) string {
	return fmt.Sprintf("%s%s:", scopePrefix, id)
}

// scopePattern matches every key of a session; glob characters in the id are escaped.
func scopePattern(id poll.SessionID) string {
	return globEscaper.Replace(scope(id)) + "*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func activeKey(id poll.SessionID) string {
	return scope(id) + "active"
}

func slideKey(id poll.SessionID, slide poll.SlideID) string {
	return fmt.Sprintf("%sslide:%s", scope(id), slide)
}

func tallyKey(id poll.SessionID, slide poll.SlideID) string {
	return fmt.Sprintf("%stally:%s", scope(id), slide)
}

func marksKey(id poll.SessionID, slide poll.SlideID) string {
	return fmt.Sprintf("%smarks:%s", scope(id), slide)
}
