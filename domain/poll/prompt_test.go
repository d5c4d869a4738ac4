package poll

import (
	"pulse-lab/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  Prompt
		max     int
		wantErr bool
	}{
		{
			name:   "Multiple choice with two options",
			prompt: MultipleChoice{SlideID: "s1", Question: "Capital?", Options: []string{"Paris", "London"}},
		},
		{
			name:    "Multiple choice with a single option",
			prompt:  MultipleChoice{SlideID: "s1", Question: "Capital?", Options: []string{"Paris"}},
			wantErr: true,
		},
		{
			name:    "Multiple choice above the configured bound",
			prompt:  MultipleChoice{SlideID: "s1", Question: "Q", Options: []string{"a", "b", "c"}},
			max:     2,
			wantErr: true,
		},
		{
			name:    "Missing question",
			prompt:  WordCloud{SlideID: "s1"},
			wantErr: true,
		},
		{
			name:    "Slide id with separator",
			prompt:  WordCloud{SlideID: "s:1", Question: "One word?"},
			wantErr: true,
		},
		{
			name:   "Word cloud",
			prompt: WordCloud{SlideID: "s2", Question: "One word?"},
		},
		{
			name:    "Nil prompt",
			prompt:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidatePrompt(tt.prompt, tt.max)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidPrompt)
				return
			}
			req.NoError(err)
		})
	}
}

func TestMultipleChoice_WithDefaultLabels(t *testing.T) {
	req := require.New(t)

	// Given a prompt with blank options
	mc := MultipleChoice{SlideID: "s1", Question: "  Pick one ", Options: []string{" Paris ", "", "  "}}

	// When defaults are applied
	got := mc.WithDefaultLabels()

	// Then blank options get a positional label
	req.Equal([]string{"Paris", "Option 2", "Option 3"}, got.Options)
	req.Equal("Pick one", got.Question)
	req.NoError(ValidatePrompt(got, 0))
}

func TestCheckResponse(t *testing.T) {
	mc := MultipleChoice{SlideID: "s1", Question: "Q", Options: []string{"a", "b"}}
	wc := WordCloud{SlideID: "s2", Question: "Q"}

	tests := []struct {
		name     string
		prompt   Prompt
		response Response
		wantErr  bool
	}{
		{name: "First option", prompt: mc, response: OptionResponse{Index: 0}},
		{name: "Last option", prompt: mc, response: OptionResponse{Index: 1}},
		{name: "Option out of range", prompt: mc, response: OptionResponse{Index: 2}, wantErr: true},
		{name: "Negative option", prompt: mc, response: OptionResponse{Index: -1}, wantErr: true},
		{name: "Word for a multiple choice", prompt: mc, response: WordResponse{Word: "a"}, wantErr: true},
		{name: "Word", prompt: wc, response: WordResponse{Word: " blue "}},
		{name: "Blank word", prompt: wc, response: WordResponse{Word: "   "}, wantErr: true},
		{name: "Too long word", prompt: wc, response: WordResponse{Word: strings.Repeat("x", 11)}, wantErr: true},
		{name: "No prompt", prompt: nil, response: WordResponse{Word: "blue"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := CheckResponse(tt.prompt, tt.response, 10)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidResponse)
				return
			}
			req.NoError(err)
		})
	}
}

func TestWordResponse_Key(t *testing.T) {
	req := require.New(t)
	req.Equal("blue sky", WordResponse{Word: "  blue sky\n"}.Key())
	req.Equal("3", OptionResponse{Index: 3}.Key())
}

func TestAcceptsKey(t *testing.T) {
	req := require.New(t)
	mc := MultipleChoice{SlideID: "s1", Question: "Q", Options: []string{"a", "b"}}
	wc := WordCloud{SlideID: "s1", Question: "Q"}

	req.True(AcceptsKey(mc, "0"))
	req.True(AcceptsKey(mc, "1"))
	req.False(AcceptsKey(mc, "2"))
	req.False(AcceptsKey(mc, "-1"))
	req.False(AcceptsKey(mc, "01"))
	req.False(AcceptsKey(mc, "happy"))
	req.True(AcceptsKey(wc, "happy"))
	req.False(AcceptsKey(wc, ""))
	req.False(AcceptsKey(nil, "0"))
}

func TestParseSessionID(t *testing.T) {
	req := require.New(t)
	req.Equal(SessionID("AB12X9"), ParseSessionID(" ab12x9\n"))
	req.Equal(SessionID("AB12X9"), ParseSessionID("AB12X9"))
	req.Equal(SessionID(""), ParseSessionID("   "))
}
