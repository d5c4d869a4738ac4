package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse-lab/infrastructure/grpc/client"

	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	Addr         string        `envconfig:"PULSE_ADDR" default:"localhost:9090"`
	Participants int           `envconfig:"SIM_PARTICIPANTS" default:"200"`
	Concurrency  int           `envconfig:"SIM_CONCURRENCY" default:"32"`
	Options      int           `envconfig:"SIM_OPTIONS" default:"4"`
	Duplicates   float64       `envconfig:"SIM_DUPLICATE_RATIO" default:"0.2"`
	Timeout      time.Duration `envconfig:"SIM_TIMEOUT" default:"60s"`
	Settle       time.Duration `envconfig:"SIM_SETTLE" default:"5s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c, err := client.Dial(cfg.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", cfg.Addr, err)
		os.Exit(1)
	}
	defer c.Close()

	report, err := NewSimulation(log, c, cfg).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}
	log.Info("Simulation passed",
		"session", report.Session,
		"accepted", report.Accepted,
		"ignored", report.Ignored,
		"tally", report.Total,
		"watcherTotal", report.WatcherTotal,
		"elapsed", report.Elapsed)
}
