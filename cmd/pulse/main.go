package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"pulse-lab/auth"
	"pulse-lab/contract"
	"pulse-lab/infrastructure/grpc/server"
	pulsehttp "pulse-lab/infrastructure/http"
	"pulse-lab/infrastructure/redis"
	"pulse-lab/infrastructure/storage"
	"pulse-lab/internal"
	"pulse-lab/moderation"
	pb "pulse-lab/proto/poll"
	"pulse-lab/observability"
	"pulse-lab/runtime"
	"pulse-lab/runtime/workers"
	"pulse-lab/services"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pulse terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so deferred cleanups execute before the exit code is returned.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	var issuer *auth.Issuer
	if config.PresenterSecret != "" {
		if issuer, err = auth.NewIssuer(config.PresenterSecret, config.PresenterTokenTTL); err != nil {
			return exitConfig, fmt.Errorf("presenter auth: %w", err)
		}
		logger.Info("Presenter tokens required for publish and end")
	}

	instance := config.InstanceID
	if instance == "" {
		instance = uuid.NewString()
	}

	// 2. Shared state: redis when several instances serve the sessions, BadgerDB otherwise
	var (
		store       stores
		redisClient *goredis.Client
	)
	if config.RedisAddr != "" {
		redisClient, err = redis.Connect(ctx, logger, redis.Options{
			Addr:       config.RedisAddr,
			Password:   config.RedisPassword,
			DB:         config.RedisDB,
			MaxRetries: 5,
			RetryDelay: 2 * time.Second,
		})
		if err != nil {
			return exitRuntime, err
		}
		defer func() { _ = redisClient.Close() }()
		store = stores{
			sessions: redis.NewSessionStore(redisClient, logger),
			prompts:  redis.NewPromptStore(redisClient, logger),
			tallies:  redis.NewTallyStore(redisClient, logger),
		}
		logger.Info("Distributed mode, state kept in redis", "addr", config.RedisAddr)
	} else {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
			database.StartDebugServer(db, config.DebugPort, endpoint, storage.InspectMapper)
		}
		store = stores{
			sessions: storage.NewSessionRepository(db, logger),
			prompts:  storage.NewPromptRepository(db, logger),
			tallies:  storage.NewTallyRepository(db, logger, storage.NewParticipantGuard(logger), config.SubmitMaxAttempts),
		}
	}

	// 3. Moderation dictionary
	words, err := loadCensoredWords(config.CensoredDir, logger)
	if err != nil {
		return exitConfig, err
	}
	moderator, err := moderation.NewModerator(words, charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}

	// 4. Supervision & change propagation
	monitor := observability.NewMonitor(logger)
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, monitor,
		config.BufferSize, config.SinkTimeout, instance)
	notifier := orchestrator.Notifier()

	// 5. Services
	sessions := services.NewSessionRegistry(logger, store.sessions, notifier, config.SessionCodeLength)
	channel := services.NewBroadcastChannel(logger, store.prompts, notifier, monitor,
		config.MaxOptions, config.SubscriptionBufferSize)
	aggregator := services.NewAggregator(logger, store.tallies, notifier, monitor, config.SubscriptionBufferSize)
	pollService := services.NewPollService(logger, sessions, channel, aggregator, moderator,
		config.MaxWordLength, config.PublicURL)

	orchestrator.AddWorkers(
		workers.NewSessionJanitor(logger, sessions, config.SessionTTL, config.JanitorInterval),
		workers.NewReporterWorker(logger, monitor, config.MetricInterval),
	)

	// 6. Cross-instance relay of change signals
	if redisClient != nil {
		orchestrator.Add(redis.NewPublisher(logger, redisClient, instance))
		orchestrator.AddWorkers(redis.NewRelayWorker(logger, redisClient, notifier, instance))
	}

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 8. gRPC server
	listener, err := net.Listen("tcp", config.GrpcAddr())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GrpcAddr(), err)
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpc3.UnaryLoggingInterceptor(logger),
		auth.PresenterInterceptor(issuer),
	))
	pb.RegisterPollServiceServer(s, server.NewPollServer(logger, pollService).WithPresenterAuth(issuer))

	go func() {
		logger.Info("Starting gRPC server", "address", config.GrpcAddr(), "instance", instance, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 9. HTTP server (REST, WebSocket, QR, metrics)
	httpServer := pulsehttp.NewServer(config.HttpAddr(), pollService, monitor, logger).UsePresenterAuth(issuer)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 11. Graceful shutdown
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	s.GracefulStop()
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

type stores struct {
	sessions contract.ISessionRepository
	prompts  contract.IPromptRepository
	tallies  contract.ITallyRepository
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if config.BadgerInMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}

func loadCensoredWords(dir string, logger *slog.Logger) ([]string, error) {
	if dir == "" {
		logger.Info("No censored dictionary configured, word clouds are not moderated")
		return nil, nil
	}
	dict, err := moderation.LoadDictionary(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("censored dictionary %s: %w", dir, err)
	}
	logger.Info("Censored dictionary loaded", "words", len(dict.Words), "languages", dict.Languages)
	return dict.Words, nil
}
