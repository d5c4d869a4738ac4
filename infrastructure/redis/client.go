package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Options struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries int
	RetryDelay time.Duration
}

// Connect pings the server until it answers or the retries are exhausted.
func Connect(ctx context.Context, log *slog.Logger, opts Options) (*goredis.Client, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		client := goredis.NewClient(&goredis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("Connected to redis", "addr", opts.Addr, "db", opts.DB, "attempt", attempt)
			return client, nil
		}

		_ = client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, opts.MaxRetries, err)
		log.Warn("Redis ping failed, retrying", "attempt", attempt, "error", err)
		if attempt < opts.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
	}
	return nil, lastErr
}
