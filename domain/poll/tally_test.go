package poll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize_MultipleChoice(t *testing.T) {
	req := require.New(t)

	// Given two votes for Paris and one for London
	mc := MultipleChoice{SlideID: "s1", Question: "Capital?", Options: []string{"Paris", "London", "Rome"}}
	tally := Tally{"0": 2, "1": 1}

	// When the tally is summarized
	summary := Summarize(mc, tally)

	// Then every option is listed with its share
	req.Equal(KindMultipleChoice, summary.Kind)
	req.Equal(uint64(3), summary.Total)
	req.Equal([]OptionResult{
		{Index: 0, Label: "Paris", Count: 2, Percent: 67},
		{Index: 1, Label: "London", Count: 1, Percent: 33},
		{Index: 2, Label: "Rome", Count: 0, Percent: 0},
	}, summary.Options)
}

func TestSummarize_MultipleChoice_NoVotes(t *testing.T) {
	req := require.New(t)
	mc := MultipleChoice{SlideID: "s1", Question: "Q", Options: []string{"a", "b"}}

	summary := Summarize(mc, Tally{})

	req.Equal(uint64(0), summary.Total)
	req.Len(summary.Options, 2)
	req.Zero(summary.Options[0].Percent)
}

func TestSummarize_WordCloud(t *testing.T) {
	req := require.New(t)

	// Given a word cloud with a clear leader and a tie
	wc := WordCloud{SlideID: "s2", Question: "Mood?"}
	tally := Tally{"happy": 4, "tired": 2, "calm": 2, "ghost": 0}

	// When the tally is summarized
	summary := Summarize(wc, tally)

	// Then words are ranked and scaled against the leader
	req.Equal(uint64(8), summary.Total)
	req.Equal([]WordResult{
		{Word: "happy", Count: 4, FontSize: MaxFontSize},
		{Word: "calm", Count: 2, FontSize: 40},
		{Word: "tired", Count: 2, FontSize: 40},
	}, summary.Words)
}

func TestTally_TotalAndClone(t *testing.T) {
	req := require.New(t)
	tally := Tally{"0": 2, "1": 1}

	clone := tally.Clone()
	clone["0"]++

	req.Equal(uint64(3), tally.Total())
	req.Equal(uint64(4), clone.Total())
}
