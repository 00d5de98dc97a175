package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"modelstudio/internal/api"
	"modelstudio/internal/config"
	"modelstudio/internal/conversation"
	"modelstudio/internal/metrics"
	"modelstudio/internal/providers/registry"
	"modelstudio/internal/storage"
	"modelstudio/internal/turnlock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogger(cfg.Log.Level)
	log.Info().
		Str("db_driver", cfg.DB.Driver).
		Bool("allow_mock", cfg.Providers.AllowMock).
		Int("context_window", cfg.Chat.ContextWindow).
		Bool("turn_lock", cfg.TurnLock.Enabled).
		Msg("starting modelstudio")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, cfg.DB.AutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	m := metrics.Global()

	gateway, err := registry.Build(cfg.Providers, nil, registry.Options{Logger: log.Logger, Metrics: m})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build provider gateway")
	}
	for _, p := range gateway.Providers() {
		log.Info().Str("provider", p.ID).Bool("mock", p.Mock).Msg("provider available")
	}

	var locker conversation.Locker
	if cfg.TurnLock.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.TurnLock.RedisAddr,
			Password: cfg.TurnLock.RedisPassword,
			DB:       cfg.TurnLock.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		locker = turnlock.New(rdb, cfg.TurnLock.TTL)
	}

	service := conversation.NewService(conversation.Config{
		Store:         store,
		Gateway:       gateway,
		Locker:        locker,
		ContextWindow: cfg.Chat.ContextWindow,
		Temperature:   cfg.Chat.DefaultTemperature,
		Logger:        log.Logger,
		Metrics:       m,
	})
	server := api.NewServer(api.Config{
		Service:     service,
		Providers:   gateway,
		Logger:      log.Logger,
		Metrics:     m,
		AllowOrigin: cfg.HTTP.AllowOrigin,
		MetricsPath: cfg.HTTP.MetricsPath,
	})

	errCh := make(chan error, 1)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("runtime error")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
	}

	log.Info().Msg("stopped")
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
