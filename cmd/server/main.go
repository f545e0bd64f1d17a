package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "wordrush/docs"
	"wordrush/internal/app"
	"wordrush/internal/config"
	"wordrush/internal/logger"

	"github.com/rs/zerolog/log"
)

// @title Word Rush API
// @version 1.0
// @description Real-time multiplayer word game server. Gameplay runs over /ws.
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	go a.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Int("max_players", cfg.Game.MaxPlayers).
			Int("round_total", cfg.Game.RoundTotal).
			Bool("recorder", a.Recorder.Enabled()).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.Close()

	log.Info().Msg("server exited")
}
