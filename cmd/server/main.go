package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adomia/account-gate/internal/api"
	"github.com/adomia/account-gate/internal/infrastructure/config"
	mongostore "github.com/adomia/account-gate/internal/infrastructure/db/mongo"
	redisstore "github.com/adomia/account-gate/internal/infrastructure/db/redis"
	"github.com/adomia/account-gate/internal/infrastructure/queue"
	"github.com/adomia/account-gate/internal/infrastructure/upstream"
	"github.com/adomia/account-gate/pkg/logger"
)

func main() {
	// .env is a local convenience; absence is not an error.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "account-gate"})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration invalid")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "account-gate",
	})

	// --- Tombstone store ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	repo := mongostore.NewTombstoneRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("tombstone index creation failed")
	}

	// --- Advisory lock backend (optional) ---
	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, deletions proceed without the advisory lock")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// --- Upstream gateway and cleanup workers ---
	gateway := upstream.NewClient(upstream.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		Timeout:         cfg.Upstream.Timeout,
		CurrentUserPath: cfg.Upstream.CurrentUserPath,
		LogoutPath:      cfg.Upstream.LogoutPath,
		UserDeletePath:  cfg.Upstream.UserDeletePath,
		AdminToken:      cfg.Upstream.AdminToken,
	}, log)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	cleanup := queue.NewCleanupDispatcher(0, gateway, log)
	cleanup.Start(workerCtx)

	e := api.NewRouter(cfg, db, rdb, gateway, cleanup, log)

	// --- Serve until signalled ---
	go func() {
		log.Info().Str("port", cfg.Port).Str("upstream", cfg.Upstream.BaseURL).Msg("account gate listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	stopWorkers()
}
