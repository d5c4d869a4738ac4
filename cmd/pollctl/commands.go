package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pulse-lab/domain/poll"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func (c *Config) call(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func createCmd(cfg *Config) *cobra.Command {
	var showQR bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a session and print its code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cfg.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			session, joinURL, err := c.CreateSession(ctx)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)
			out.title("Session %s", session.ID)
			out.line("created %s", session.CreatedAt.Local().Format("15:04:05"))
			out.line("join at %s", joinURL)
			if token := c.PresenterToken(session.ID); token != "" {
				out.line("presenter token %s", token)
			}
			if showQR {
				return printQR(out, joinURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showQR, "qr", false, "print the join QR code")
	return cmd
}

func endCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "end SESSION",
		Short: "End a session and drop its prompts and tallies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cfg.presenter(sessionArg(args[0]))
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			if err := c.EndSession(ctx, sessionArg(args[0])); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), cfg.plain).ok("Session %s ended", sessionArg(args[0]))
			return nil
		},
	}
}

func publishCmd(cfg *Config) *cobra.Command {
	var (
		slide     string
		question  string
		options   []string
		wordCloud bool
	)
	cmd := &cobra.Command{
		Use:   "publish SESSION",
		Short: "Publish the prompt of a slide, replacing the active one",
		Example: `  pollctl publish AB12X9 --slide s1 --question "Capital?" --option Paris --option London
  pollctl publish AB12X9 --slide s2 --question "One word?" --word-cloud`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompt poll.Prompt
			switch {
			case wordCloud && len(options) > 0:
				return errors.New("--option and --word-cloud are exclusive")
			case wordCloud:
				prompt = poll.WordCloud{SlideID: poll.SlideID(slide), Question: question}
			default:
				prompt = poll.MultipleChoice{SlideID: poll.SlideID(slide), Question: question, Options: options}
			}

			c, err := cfg.presenter(sessionArg(args[0]))
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			stored, published, err := c.Publish(ctx, sessionArg(args[0]), prompt, cfg.owner)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)
			if !published {
				out.warn("Session %s does not exist, nothing published", sessionArg(args[0]))
				return nil
			}
			out.ok("Published")
			out.prompt(stored)
			return nil
		},
	}
	cmd.Flags().StringVar(&slide, "slide", "", "slide id")
	cmd.Flags().StringVarP(&question, "question", "q", "", "question text")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "multiple choice option, repeat for each; blank options get a default label")
	cmd.Flags().BoolVar(&wordCloud, "word-cloud", false, "publish a word cloud instead of a multiple choice")
	_ = cmd.MarkFlagRequired("slide")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func promptCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt SESSION",
		Short: "Show the active prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cfg.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			prompt, err := c.ActivePrompt(ctx, sessionArg(args[0]))
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), cfg.plain).prompt(prompt)
			return nil
		},
	}
}

func submitCmd(cfg *Config) *cobra.Command {
	var (
		option int
		word   string
	)
	cmd := &cobra.Command{
		Use:   "submit SESSION SLIDE PARTICIPANT",
		Short: "Answer the active prompt as a participant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var response poll.Response
			switch {
			case cmd.Flags().Changed("option") && word != "":
				return errors.New("--option and --word are exclusive")
			case cmd.Flags().Changed("option"):
				response = poll.OptionResponse{Index: option}
			case word != "":
				response = poll.WordResponse{Word: word}
			default:
				return errors.New("one of --option or --word is required")
			}

			c, err := cfg.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			reply, err := c.Submit(ctx, sessionArg(args[0]), poll.SlideID(args[1]), poll.ParticipantID(args[2]), response)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)
			if reply.Result != poll.Accepted {
				out.warn("Ignored: already answered, or the slide is not active")
				return nil
			}
			out.ok("Counted %q, %d responses so far", reply.Key, reply.Tally.Total())
			return nil
		},
	}
	cmd.Flags().IntVar(&option, "option", 0, "option index, zero based")
	cmd.Flags().StringVar(&word, "word", "", "word for a word cloud")
	return cmd
}

func tallyCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tally SESSION SLIDE",
		Short: "Show the results of a slide",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cfg.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := cfg.call(cmd)
			defer cancel()

			reply, err := c.Tally(ctx, sessionArg(args[0]), poll.SlideID(args[1]))
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)
			if reply.Summary != nil {
				out.summary(*reply.Summary)
				return nil
			}
			out.tally(reply.Tally)
			return nil
		},
	}
}

// watchCmd follows the active prompt and the tally of its slide until interrupted.
func watchCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch SESSION",
		Short: "Follow the active prompt and its live tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cfg.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			session := sessionArg(args[0])
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)

			ctx := cmd.Context()
			prompts, promptErrs, err := c.WatchPrompt(ctx, session, cfg.owner)
			if err != nil {
				return err
			}

			var (
				tallies   <-chan poll.Tally
				tallyErrs <-chan error
				stopTally = func() {}
			)
			defer func() { stopTally() }()

			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-promptErrs:
					if !ok {
						return nil
					}
					return err
				case err, ok := <-tallyErrs:
					if !ok {
						tallyErrs = nil
						continue
					}
					return err
				case prompt, ok := <-prompts:
					if !ok {
						return nil
					}
					stopTally()
					tallies, tallyErrs = nil, nil
					out.prompt(prompt)
					if prompt == nil {
						continue
					}
					tallyCtx, cancel := context.WithCancel(ctx)
					stopTally = cancel
					tallies, tallyErrs, err = c.WatchTally(tallyCtx, session, prompt.Slide(), cfg.owner)
					if err != nil {
						return err
					}
				case tally, ok := <-tallies:
					if !ok {
						tallies = nil
						continue
					}
					out.tally(tally)
				}
			}
		},
	}
}

func qrCmd(cfg *Config) *cobra.Command {
	var publicURL string
	cmd := &cobra.Command{
		Use:   "qr SESSION",
		Short: "Print the join QR code of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			joinURL := fmt.Sprintf("%s/join/%s", strings.TrimRight(publicURL, "/"), url.PathEscape(string(sessionArg(args[0]))))
			out := newPrinter(cmd.OutOrStdout(), cfg.plain)
			out.line("%s", joinURL)
			return printQR(out, joinURL)
		},
	}
	cmd.Flags().StringVar(&publicURL, "public-url", "http://localhost:8080", "public URL of the HTTP server")
	return cmd
}

func printQR(out *printer, content string) error {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return err
	}
	out.raw(code.ToSmallString(false))
	return nil
}

// Session codes are case-insensitive for people typing them.
func sessionArg(s string) poll.SessionID {
	return poll.ParseSessionID(s)
}
