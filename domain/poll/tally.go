package poll

import (
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// Tally maps a response key to the number of accepted responses for one slide.
type Tally map[string]uint64

func (t Tally) Total() uint64 {
	return lo.Sum(lo.Values(t))
}

func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

const (
	MinFontSize = 16
	MaxFontSize = 64
)

type OptionResult struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Count   uint64 `json:"count"`
	Percent int    `json:"percent"`
}

type WordResult struct {
	Word     string `json:"word"`
	Count    uint64 `json:"count"`
	FontSize int    `json:"fontSize"`
}

type Summary struct {
	Kind    Kind           `json:"kind"`
	Total   uint64         `json:"total"`
	Options []OptionResult `json:"options,omitempty"`
	Words   []WordResult   `json:"words,omitempty"`
}

// Summarize renders a tally against its prompt.
// Multiple choice lists every option, voted or not, with a rounded share of the total.
// Word cloud lists words by descending count, ties alphabetical, with a font size
// scaled linearly between MinFontSize and MaxFontSize against the most frequent word.
func Summarize(p Prompt, t Tally) Summary {
	total := t.Total()
	switch v := p.(type) {
	case MultipleChoice:
		return Summary{
			Kind:  KindMultipleChoice,
			Total: total,
			Options: lo.Map(v.Options, func(label string, i int) OptionResult {
				count := t[strconv.Itoa(i)]
				return OptionResult{Index: i, Label: label, Count: count, Percent: percent(count, total)}
			}),
		}
	case WordCloud:
		return Summary{Kind: KindWordCloud, Total: total, Words: rankWords(t)}
	default:
		return Summary{Total: total}
	}
}

func percent(count, total uint64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

func rankWords(t Tally) []WordResult {
	words := make([]WordResult, 0, len(t))
	var top uint64
	for word, count := range t {
		if count == 0 {
			continue
		}
		words = append(words, WordResult{Word: word, Count: count})
		top = max(top, count)
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	for i := range words {
		words[i].FontSize = MinFontSize + int(float64(words[i].Count)/float64(top)*(MaxFontSize-MinFontSize))
	}
	return words
}
