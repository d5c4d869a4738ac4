package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks dictionary words in word cloud answers before they are counted,
// so a censored word and its leet or punctuated spellings land on the same key.
type Moderator struct {
	log     *slog.Logger
	matcher *goahocorasick.Machine
	mask    rune
}

// folded is the matchable form of a text: lowercased, leet mapped, without
// punctuation, spaces or symbols. at[i] is the position in the original text of
// runes[i].
type folded struct {
	runes []rune
	at    []int
}

func fold(text []rune) folded {
	f := folded{runes: make([]rune, 0, len(text)), at: make([]int, 0, len(text))}
	for i, r := range text {
		if c, ok := foldRune(r); ok {
			f.runes = append(f.runes, c)
			f.at = append(f.at, i)
		}
	}
	return f
}

func foldRune(r rune) (rune, bool) {
	switch r {
	case '4', '@':
		r = 'a'
	case '3', '€':
		r = 'e'
	case '1', '!', '|':
		r = 'i'
	case '0':
		r = 'o'
	case '5', '$':
		r = 's'
	}
	if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
		return 0, false
	}
	return unicode.ToLower(r), true
}

// NewModerator builds the automaton over the folded dictionary. Entries folding
// to nothing are skipped; an empty dictionary yields a moderator that changes nothing.
func NewModerator(dictionary []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.UniqBy(lo.FilterMap(dictionary, func(word string, _ int) ([]rune, bool) {
		f := fold([]rune(word))
		return f.runes, len(f.runes) > 0
	}), func(p []rune) string { return string(p) })

	m := &Moderator{log: log, mask: mask}
	if len(patterns) == 0 {
		return m, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	m.matcher = machine
	log.Debug("Moderation dictionary built", "patterns", len(patterns))
	return m, nil
}

// Censor masks every original rune from the first to the last character of each
// match, punctuation inside a match included. It returns the masked text and the
// dictionary words found, one per match.
func (m *Moderator) Censor(text string) (string, []string) {
	if m == nil || m.matcher == nil {
		return text, nil
	}
	original := []rune(text)
	f := fold(original)
	if len(f.runes) == 0 {
		return text, nil
	}

	var found []string
	for _, term := range m.matcher.MultiPatternSearch(f.runes, false) {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(f.at) {
			continue
		}
		for i := f.at[term.Pos]; i <= f.at[end-1]; i++ {
			original[i] = m.mask
		}
		found = append(found, string(term.Word))
	}
	if len(found) == 0 {
		return text, nil
	}
	return string(original), found
}
