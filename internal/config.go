package internal

import (
	"fmt"
	"pulse-lab/errors"
	"time"
)

type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	GrpcPort  int    `env:"GRPC_PORT,default=9090"`
	HttpPort  int    `env:"HTTP_PORT,default=8080"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`
	PublicURL string `env:"PUBLIC_URL,default=http://localhost:8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/pulse"`
	BadgerInMemory bool   `env:"BADGER_IN_MEMORY,default=false"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	BufferSize             int           `env:"BUFFER_SIZE,default=1024"`
	SubscriptionBufferSize int           `env:"SUBSCRIPTION_BUFFER_SIZE,default=4"`
	SinkTimeout            time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	RestartInterval        time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval         time.Duration `env:"METRIC_INTERVAL,default=30s"`

	SessionCodeLength int           `env:"SESSION_CODE_LENGTH,default=6"`
	SessionTTL        time.Duration `env:"SESSION_TTL,default=12h"`
	JanitorInterval   time.Duration `env:"JANITOR_INTERVAL,default=5m"`
	MaxOptions        int           `env:"MAX_OPTIONS,default=10"`
	MaxWordLength     int           `env:"MAX_WORD_LENGTH,default=40"`
	SubmitMaxAttempts int           `env:"SUBMIT_MAX_ATTEMPTS,default=32"`

	CensoredDir     string `env:"CENSORED_DIR"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	InstanceID    string `env:"INSTANCE_ID"`

	// Empty leaves publish and end open to anyone knowing the session code.
	PresenterSecret   string        `env:"PRESENTER_SECRET"`
	PresenterTokenTTL time.Duration `env:"PRESENTER_TOKEN_TTL,default=12h"`
}

func (c Config) GrpcAddr() string { return fmt.Sprintf("%s:%d", c.Host, c.GrpcPort) }

func (c Config) HttpAddr() string { return fmt.Sprintf("%s:%d", c.Host, c.HttpPort) }

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.SessionCodeLength < 4 {
		return fmt.Errorf("SESSION_CODE_LENGTH must be at least 4, got %d", c.SessionCodeLength)
	}
	if c.MaxOptions < 2 {
		return fmt.Errorf("MAX_OPTIONS must be at least 2, got %d", c.MaxOptions)
	}
	if c.BufferSize <= 0 || c.SubmitMaxAttempts <= 0 {
		return fmt.Errorf("BUFFER_SIZE and SUBMIT_MAX_ATTEMPTS must be positive")
	}
	if !c.BadgerInMemory && c.BadgerFilepath == "" {
		return fmt.Errorf("BADGER_FILEPATH is required unless BADGER_IN_MEMORY is set")
	}
	if c.PresenterSecret != "" && c.PresenterTokenTTL <= 0 {
		return fmt.Errorf("PRESENTER_TOKEN_TTL must be positive when PRESENTER_SECRET is set")
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("%w: CHARACTER_REPLACEMENT=%q", errors.ErrInvalidCharacter, str)
	}
	return r[0], nil
}
