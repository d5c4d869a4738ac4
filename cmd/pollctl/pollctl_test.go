package main

import (
	"bytes"
	"context"
	"pulse-lab/domain/poll"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newCmd(&Config{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPollctl_RejectsAmbiguousInput(t *testing.T) {
	req := require.New(t)

	_, err := run(t, "submit", "AB12X9", "s1", "p1")
	req.ErrorContains(err, "one of --option or --word is required")

	_, err = run(t, "submit", "AB12X9", "s1", "p1", "--option", "1", "--word", "hi")
	req.ErrorContains(err, "exclusive")

	_, err = run(t, "publish", "AB12X9", "--slide", "s1", "-q", "Q?", "-o", "a", "--word-cloud")
	req.ErrorContains(err, "exclusive")

	_, err = run(t, "--timeout", "0s", "prompt", "AB12X9")
	req.ErrorContains(err, "invalid timeout")
}

func TestPollctl_QRCode(t *testing.T) {
	req := require.New(t)

	out, err := run(t, "--plain", "qr", "ab12x9", "--public-url", "https://pulse.example/")

	req.NoError(err)
	req.Contains(out, "https://pulse.example/join/AB12X9")
	req.Greater(len(out), 200)
}

func TestPrinter_Summary(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	p := newPrinter(&out, true)
	prompt := poll.MultipleChoice{SlideID: "s1", Question: "Capital?", Options: []string{"Paris", "London"}}

	p.prompt(prompt)
	p.summary(poll.Summarize(prompt, poll.Tally{"0": 2, "1": 1}))

	text := out.String()
	req.Contains(text, "[s1] Capital?")
	req.Contains(text, "Paris")
	req.Contains(text, "67%")
	req.Contains(strings.ToUpper(text), "TOTAL")
}

func TestPrinter_NoPrompt(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	newPrinter(&out, true).prompt(nil)

	req.Equal("No active prompt\n", out.String())
}
