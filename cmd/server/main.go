package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpapi "github.com/puzzlehive/puzzlehive/internal/api/http"
	appSession "github.com/puzzlehive/puzzlehive/internal/application/session"
	"github.com/puzzlehive/puzzlehive/internal/config"
	"github.com/puzzlehive/puzzlehive/internal/infrastructure/postgres"
	"github.com/puzzlehive/puzzlehive/internal/infrastructure/redis"
	"github.com/puzzlehive/puzzlehive/internal/infrastructure/sse"
	"github.com/puzzlehive/puzzlehive/internal/obs"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer redisClient.Close()

	repo := postgres.NewPuzzleRepository(pool)
	store := redis.NewStore(redisClient, logger)
	hub := sse.NewHub()
	metrics := obs.NewMetrics(prometheus.DefaultRegisterer)

	sessionSvc := appSession.NewService(repo, store, hub, metrics, logger, appSession.Config{
		LockTTL:       cfg.LockTTL,
		SnapTolerance: cfg.SnapTolerance,
		CursorRate:    cfg.CursorRate,
		ConnectionTTL: cfg.ConnectionTTL,
	})

	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()

	relay := appSession.NewRelay(store, hub, sessionSvc, logger)
	stopRelay, err := relay.Start(relayCtx)
	if err != nil {
		log.Fatalf("relay error: %v", err)
	}
	defer stopRelay()

	go appSession.NewSweeper(sessionSvc, cfg.SweepInterval, logger).Run(relayCtx)

	heartbeatInterval := cfg.ConnectionTTL / 3
	apiServer := httpapi.NewServer(sessionSvc, hub, metrics, logger, heartbeatInterval)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout; the SSE stream endpoint writes for the lifetime of
		// the connection.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	cancelRelay()
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
