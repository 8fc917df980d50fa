// Package main is the entry point for the FlexMon alert rule evaluation
// engine. It initializes the storage backends, starts the ops HTTP server,
// and runs the scheduler loop until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"flexmon-go/internal/banner"
	"flexmon-go/internal/config"
	"flexmon-go/internal/engine"
	"flexmon-go/internal/lock"
	"flexmon-go/internal/logsearch"
	"flexmon-go/internal/queue"
	kafkaqueue "flexmon-go/internal/queue/kafka"
	memoryqueue "flexmon-go/internal/queue/memory"
	"flexmon-go/internal/server"
	"flexmon-go/internal/store"
	memorystor "flexmon-go/internal/store/memory"
	postgresstor "flexmon-go/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	banner.Print()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start the evaluation engine in background
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := deps.engine.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("engine error", "error", err)
			cancel()
		}
	}()

	// Start ops HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("FlexMon engine started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
		"interval", cfg.Engine.Interval,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// The engine finishes its in-flight pass before stopping.
	<-engineDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("FlexMon engine stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	engine *engine.Engine
	server *server.Server
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		ruleRepo     store.RuleRepository
		alertRepo    store.AlertRepository
		metricsRepo  store.MetricsRepository
		agentRepo    store.AgentRepository
		search       logsearch.Searcher
		producer     queue.Producer
		locker       lock.Locker
		cleanupFuncs []func()
	)

	if cfg.Storage.UseMemory() {
		logger.Info("initializing in-memory storage")

		ruleRepo = memorystor.NewRuleRepository()
		alertRepo = memorystor.NewAlertRepository()
		metricsRepo = memorystor.NewMetricsRepository()
		agentRepo = memorystor.NewAgentRepository()
		search = logsearch.NewMemory()
		locker = lock.NewNoop()

		memQueue := memoryqueue.NewQueue()
		producer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		logger.Info("initializing production storage (PostgreSQL, Elasticsearch, Redis, Kafka)")

		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		ruleRepo = postgresstor.NewRuleRepository(db)
		alertRepo = postgresstor.NewAlertRepository(db)
		metricsRepo = postgresstor.NewMetricsRepository(db)
		agentRepo = postgresstor.NewAgentRepository(db)

		esClient, err := logsearch.NewESClient(&cfg.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		search = esClient

		lease, err := lock.NewRedisLease(&cfg.Redis, cfg.Engine.LeaseTTL)
		if err != nil {
			return nil, nil, err
		}
		locker = lease
		cleanupFuncs = append(cleanupFuncs, func() { _ = lease.Close() })

		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })
	}

	eng := engine.NewEngine(
		cfg.Engine,
		ruleRepo,
		alertRepo,
		metricsRepo,
		agentRepo,
		search,
		producer,
		locker,
		logger,
	)

	srv := server.NewServer(&cfg.Server, logger)

	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		engine: eng,
		server: srv,
	}, cleanup, nil
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
