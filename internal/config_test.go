package internal

import (
	"pulse-lab/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.Equal(6, config.SessionCodeLength)
	req.Equal(30*time.Minute, config.SessionTTL)
	req.Equal("localhost:6379", config.RedisAddr)
	req.Equal("0.0.0.0:9090", config.GrpcAddr())
	req.Empty(config.PresenterSecret)
	req.Equal(12*time.Hour, config.PresenterTokenTTL)
	req.NoError(config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{SessionCodeLength: 6, MaxOptions: 10, BufferSize: 1, SubmitMaxAttempts: 1, BadgerInMemory: true, CharReplacement: "*"}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short code", func(c *Config) { c.SessionCodeLength = 3 }},
		{"one option", func(c *Config) { c.MaxOptions = 1 }},
		{"no buffer", func(c *Config) { c.BufferSize = 0 }},
		{"no badger path", func(c *Config) { c.BadgerInMemory = false }},
		{"two characters", func(c *Config) { c.CharReplacement = "**" }},
		{"secret without ttl", func(c *Config) { c.PresenterSecret = "0123456789abcdef" }},
	}
	require.NoError(t, valid.Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid
			tc.mutate(&config)
			require.Error(t, config.Validate())
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("")
	req.ErrorIs(err, errors.ErrInvalidCharacter)
}
