// Command viewer serves the Badger inspector over the data directory of a
// running pulse server, without starting any service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"pulse-lab/infrastructure/storage"
	"pulse-lab/internal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	if config.BadgerInMemory {
		return fmt.Errorf("BADGER_IN_MEMORY is set, there is nothing on disk to view")
	}

	// The server keeps the directory lock; read-only access goes around it.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("open %s: %w", config.BadgerFilepath, err)
	}
	defer db.Close()

	var kinds []string
	if err := storage.Scan(db, "", func(rec storage.Record) error {
		kinds = append(kinds, rec.Kind)
		return nil
	}); err != nil {
		return err
	}
	logger.Info("Records found", "path", config.BadgerFilepath, "byKind", lo.CountValues(kinds))

	database.StartDebugServer(db, config.DebugPort, "/inspect", storage.InspectMapper)
	logger.Info("Viewer started", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
