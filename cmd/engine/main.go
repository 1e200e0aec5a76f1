package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/adapters/clickhouse"
	"github.com/tacticalpha/regime-engine/internal/adapters/config"
	"github.com/tacticalpha/regime-engine/internal/adapters/database"
	redisAdapter "github.com/tacticalpha/regime-engine/internal/adapters/redis"
	"github.com/tacticalpha/regime-engine/internal/adapters/telegram"
	"github.com/tacticalpha/regime-engine/internal/engine"
	"github.com/tacticalpha/regime-engine/internal/tactical"
	"github.com/tacticalpha/regime-engine/internal/workers"
	"github.com/tacticalpha/regime-engine/pkg/logger"
	"github.com/tacticalpha/regime-engine/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("regime engine starting",
		zap.String("raw_dir", cfg.Data.RawDir),
		zap.String("models_dir", cfg.Data.ModelsDir),
		zap.Duration("refresh_interval", cfg.Engine.RefreshInterval),
	)

	pipeline, err := engine.New(cfg)
	if err != nil {
		return err
	}

	// Postgres persistence
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		return err
	}
	repo := tactical.NewRepository(db.DB())

	// Optional ClickHouse analytics sink
	var sink *clickhouse.Repository
	if cfg.ClickHouse.Enabled {
		chDB, err := database.NewClickHouse(cfg.ClickHouse.GetDSN())
		if err != nil {
			logger.Warn("clickhouse not available, analytics export disabled", zap.Error(err))
		} else {
			defer chDB.Close()
			sink = clickhouse.NewRepository(chDB.DB())
		}
	}

	// Optional distributed lock
	var redisClient *redisAdapter.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisAdapter.New(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	// Optional regime-change alerts
	var notifier *telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			return err
		}
	}

	refresh := workers.NewRefreshWorker(pipeline, repo, sink, redisClient, notifier)

	if cfg.Engine.RunOnce {
		return refresh.Run(ctx)
	}

	// The worker runs once on start, then on the configured interval.
	group := worker.NewWorkerGroup(ctx)
	group.Add(refresh, cfg.Engine.RefreshInterval)
	group.Start()

	<-ctx.Done()
	group.Stop(30 * time.Second)

	logger.Info("regime engine stopped")
	return nil
}

func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return cfg, nil
}
