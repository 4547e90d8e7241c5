package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/magicchess/predictor-api/internal/client"
	"github.com/magicchess/predictor-api/internal/config"
	"github.com/magicchess/predictor-api/internal/handlers"
	"github.com/magicchess/predictor-api/internal/logic"
	"github.com/magicchess/predictor-api/internal/session"
	"github.com/magicchess/predictor-api/internal/worker"
)

func main() {
	// Load .env if present; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL (session history)
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to create Postgres pool", "error", err)
	}
	defer pgPool.Close()

	// ClickHouse (observation log)
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Invalid ClickHouse DSN", "error", err)
	}
	chConn, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer chConn.Close()

	// Redis (prediction cache, roster bookkeeping)
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Invalid Redis URL", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Ingestion worker pool
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    chConn,
		Redis:         redisClient,
		Logger:        logger,
	})
	pool.Start(ctx)

	// Prediction engine and the HTTP client the session controllers speak
	// through. By default the client points back at this process.
	predictor := logic.NewPredictorService(chConn, redisClient, cfg.PredictionCacheTTL, logger)
	predictionClient := client.New(cfg.PredictionAPIURL, &http.Client{Timeout: 10 * time.Second}, logger)

	sessions := session.NewManager(session.ManagerConfig{
		Client:   predictionClient,
		Postgres: pgPool,
		Logger:   logger,
		IdleTTL:  cfg.SessionIdleTTL,
	})
	sessions.Start(ctx)

	h := handlers.New(handlers.Config{
		WorkerPool: pool,
		Postgres:   pgPool,
		ClickHouse: chConn,
		Redis:      redisClient,
		Logger:     logger,
		Predictor:  predictor,
		Sessions:   sessions,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}

		sessions.Stop()
		pool.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("Server error", "error", err)
	}
	sugar.Info("Server stopped")
}
