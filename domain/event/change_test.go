package event

import (
	"pulse-lab/domain/poll"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChange_Concerns(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		slide  poll.SlideID
		want   bool
	}{
		{"Prompt watcher sees publish", NewChange(PromptChanged, "AB12X9", "s1", ""), "", true},
		{"Prompt watcher ignores tallies", NewChange(TallyChanged, "AB12X9", "s1", "P1"), "", false},
		{"Tally watcher sees its slide", NewChange(TallyChanged, "AB12X9", "s1", "P1"), "s1", true},
		{"Tally watcher ignores other slides", NewChange(TallyChanged, "AB12X9", "s2", "P1"), "s1", false},
		{"Tally watcher ignores publish", NewChange(PromptChanged, "AB12X9", "s1", ""), "s1", false},
		{"Everyone sees the end", NewChange(SessionEnded, "AB12X9", "", ""), "s1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.change.Concerns(tt.slide))
		})
	}
}

func TestChange_Key(t *testing.T) {
	req := require.New(t)
	req.Equal("AB12X9/prompt", NewChange(PromptChanged, "AB12X9", "s1", "").Key())
	req.Equal("AB12X9/tally/s1", NewChange(TallyChanged, "AB12X9", "s1", "").Key())
	req.Equal("AB12X9", NewChange(SessionEnded, "AB12X9", "", "").Key())
}
