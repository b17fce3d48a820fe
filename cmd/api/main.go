package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodshare-backend/internal/app"
	"foodshare-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	setupLogger(cfg)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("store connected")

	go watchSessions(ctx, a)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("server running; health check at /health/json")
	if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// watchSessions logs sign-ins and sign-outs from every instance sharing the Redis.
func watchSessions(ctx context.Context, a *app.App) {
	events, err := a.Auth.Subscribe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session events: subscribe failed")
		return
	}
	for ev := range events {
		log.Info().Str("type", ev.Type).Str("user_id", ev.UserID).Msg("session event")
	}
}
