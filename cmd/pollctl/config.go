package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/grpc/client"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	addr    string
	timeout time.Duration
	owner   string
	token   string
	plain   bool
}

func (c *Config) validate() error {
	if c.addr == "" {
		return errors.New("--addr is required")
	}
	if c.timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", c.timeout)
	}
	return nil
}

func (c *Config) dial() (*client.PollClient, error) {
	return client.Dial(c.addr)
}

// presenter dials and attaches the presenter token, if any, to session.
func (c *Config) presenter(session poll.SessionID) (*client.PollClient, error) {
	pc, err := c.dial()
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		pc.SetPresenterToken(session, c.token)
	}
	return pc, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "pollctl",
		Short: "Drive live polls from the terminal: open sessions, publish prompts, vote and watch results.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.addr, "addr", "a", "localhost:9090", "gRPC address of the poll server (env: PULSE_ADDR)")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "deadline of unary calls (env: PULSE_TIMEOUT)")
	fs.StringVar(&cfg.owner, "owner", "pollctl", "context name; changes made under it are not echoed back (env: PULSE_OWNER)")
	fs.StringVar(&cfg.token, "token", "", "presenter token printed by create, sent on publish and end (env: PULSE_TOKEN)")
	fs.BoolVar(&cfg.plain, "plain", false, "disable colours (env: PULSE_PLAIN)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(
		createCmd(cfg),
		endCmd(cfg),
		publishCmd(cfg),
		promptCmd(cfg),
		submitCmd(cfg),
		tallyCmd(cfg),
		watchCmd(cfg),
		qrCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
