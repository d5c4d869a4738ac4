package moderation

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func dictionary(size int) []string {
	words := make([]string, size)
	for i := range words {
		words[i] = fmt.Sprintf("banned%d", i)
	}
	return words
}

func Test_Moderator_LargeDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a dictionary far larger than any censored directory
	words := dictionary(100_000)

	// When the automaton is built
	start := time.Now()
	m, err := NewModerator(words, '*', log)
	req.NoError(err)
	t.Logf("built automaton for %d words in %v", len(words), time.Since(start))

	// Then a submitted word is still masked
	censored, found := m.Censor("banned99999")
	req.Equal("***********", censored)
	req.Contains(found, "banned99999")
}

func BenchmarkModerator_Censor(b *testing.B) {
	m, err := NewModerator(dictionary(10_000), '*', logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(b, err)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Censor("enthusiastic")
	}
}
