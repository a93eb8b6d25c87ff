package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/handler"
	"github.com/arcade-profiles/internal/kafka"
	"github.com/arcade-profiles/internal/memstore"
	"github.com/arcade-profiles/internal/postgres"
	"github.com/arcade-profiles/internal/profile"
	"github.com/arcade-profiles/internal/redis"
	"github.com/arcade-profiles/internal/service"
	"github.com/arcade-profiles/internal/websocket"
	"github.com/arcade-profiles/internal/worker"
)

// store holds players and the score ledger
type store interface {
	service.PlayerStore
	service.Ledger
	Ping(ctx context.Context) error
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var players store
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		players = memstore.New()
	case config.StorageDriverPostgres:
		logger.Info("connecting to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		repo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer repo.Close()

		if err := repo.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		players = repo
		logger.Info("connected to postgres")
	default:
		logger.Error("unknown storage driver", "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	checks := map[string]handler.Pinger{"storage": players}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	opts := []service.Option{service.WithBroadcaster(wsHub)}

	// Initialize the realtime ranking cache
	var rankings *redis.Rankings
	if cfg.Redis.Enabled {
		logger.Info("connecting to redis", "addr", cfg.Redis.Addr)
		rankings, err = redis.NewRankings(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("failed to connect to redis, rankings served from the ledger", "error", err)
			rankings = nil
		} else {
			defer rankings.Close()
			opts = append(opts, service.WithRankings(rankings))
			checks["redis"] = rankings
			logger.Info("connected to redis")
		}
	}

	// Initialize services
	engine := profile.NewEngine(players, &cfg.Profiles, logger)
	arcadeService := service.NewArcadeService(
		players,
		players,
		engine,
		&cfg.Leaderboard,
		&cfg.Profiles,
		logger,
		opts...,
	)

	// Rebuild rankings from the ledger on startup and periodically
	var syncWorker *worker.SyncWorker
	if rankings != nil && cfg.Sync.Enabled {
		syncWorker = worker.NewSyncWorker(players, rankings, &cfg.Sync, logger)
		if err := syncWorker.Start(ctx); err != nil {
			logger.Error("failed to start sync worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for cabinet session ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, arcadeService, logger)
		if err != nil {
			logger.Warn("failed to create kafka consumer, continuing without kafka", "error", err)
			kafkaConsumer = nil
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start kafka consumer, continuing without kafka", "error", err)
			kafkaConsumer = nil
		}
	}

	httpHandler := handler.NewHandler(arcadeService, wsHub, cfg, checks, logger)
	defer httpHandler.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop kafka consumer", "error", err)
		}
	}

	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Error("failed to stop sync worker", "error", err)
		}
	}

	wsHub.Stop()

	logger.Info("server stopped")
}
