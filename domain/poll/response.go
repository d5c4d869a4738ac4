package poll

import (
	"fmt"
	"pulse-lab/errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Response is what a participant submits for the active prompt.
type Response interface {
	// Key is the tally bucket the response is counted under.
	Key() string
	Kind() Kind
}

type OptionResponse struct {
	Index int
}

func (r OptionResponse) Key() string { return strconv.Itoa(r.Index) }
func (r OptionResponse) Kind() Kind  { return KindMultipleChoice }

type WordResponse struct {
	Word string
}

func (r WordResponse) Key() string { return strings.TrimSpace(r.Word) }
func (r WordResponse) Kind() Kind  { return KindWordCloud }

// CheckResponse verifies that r fits prompt p: same kind, option index in range,
// non-empty word of at most maxWordLength runes.
func CheckResponse(p Prompt, r Response, maxWordLength int) error {
	if p == nil || r == nil {
		return errors.ErrInvalidResponse
	}
	if p.Kind() != r.Kind() {
		return fmt.Errorf("%w: %s response for a %s prompt", errors.ErrInvalidResponse, r.Kind(), p.Kind())
	}
	switch v := r.(type) {
	case OptionResponse:
		mc := p.(MultipleChoice)
		if v.Index < 0 || v.Index >= len(mc.Options) {
			return fmt.Errorf("%w: option %d out of range", errors.ErrInvalidResponse, v.Index)
		}
	case WordResponse:
		word := v.Key()
		if word == "" {
			return fmt.Errorf("%w: empty word", errors.ErrInvalidResponse)
		}
		if maxWordLength > 0 && utf8.RuneCountInString(word) > maxWordLength {
			return fmt.Errorf("%w: word longer than %d characters", errors.ErrInvalidResponse, maxWordLength)
		}
	}
	return nil
}

// AcceptsKey reports whether a tally key belongs to prompt p: a canonical option
// index in range for a multiple choice, any non-empty word for a word cloud.
// Storage calls it against the prompt read in the same transaction as the write.
func AcceptsKey(p Prompt, key string) bool {
	switch v := p.(type) {
	case MultipleChoice:
		index, err := strconv.Atoi(key)
		return err == nil && strconv.Itoa(index) == key && index >= 0 && index < len(v.Options)
	case WordCloud:
		return key != ""
	default:
		return false
	}
}
