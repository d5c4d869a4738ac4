package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// PulseAddr is the gRPC address of a running server; scenarios skip without it.
	PulseAddr    string        `envconfig:"PULSE_ADDR"`
	DebugJSON    bool          `envconfig:"E2E_DEBUG_JSON" default:"false"`
	Colours      bool          `envconfig:"E2E_COLOURS" default:"true"`
	Participants int           `envconfig:"E2E_PARTICIPANTS" default:"20"`
	StepTimeout  time.Duration `envconfig:"E2E_STEP_TIMEOUT" default:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
