package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Single word answer",
			input:    "badger",
			expected: "******",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger",
			expected: "****** ******",
			words:    []string{"badger", "badger"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "B.4.d.g.€r",
			expected: "**********",
			words:    []string{"badger"},
		},
		{
			name:     "Uppercase and noise",
			input:    "S-N-A-K-E",
			expected: "*********",
			words:    []string{"snake"},
		},
		{
			name:     "Accents are left alone",
			input:    "été",
			expected: "été",
			words:    nil,
		},
		{
			name:     "Nothing to censor",
			input:    "Pulse-Lab",
			expected: "Pulse-Lab",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise in the dictionary
	mod, err := NewModerator([]string{"...", ",,,", "", "badger", "BADGER"}, replacementChar, log)
	req.NoError(err)

	// Then dictionary words are still censored
	content, words := mod.Censor("badger")
	req.Equal("******", content)
	req.Equal([]string{"badger"}, words)

	// And real noise is left alone
	content, words = mod.Censor("...")
	req.Equal("...", content)
	req.Nil(words)
}

func TestModerator_EmptyDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mod, err := NewModerator([]string{"", "  "}, replacementChar, log)
	req.NoError(err)

	content, words := mod.Censor("badger")
	req.Equal("badger", content)
	req.Nil(words)

	var disabled *Moderator
	content, _ = disabled.Censor("badger")
	req.Equal("badger", content)
}
