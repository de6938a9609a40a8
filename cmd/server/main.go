package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/advent-allocator/pkg/config"
	"github.com/arnavshah/advent-allocator/pkg/handlers"
	"github.com/arnavshah/advent-allocator/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	config.LoadDotEnv()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	h, err := handlers.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise server")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		h.Log.Info().
			Str("addr", cfg.Addr).
			Str("fixed_participant", cfg.FixedParticipant).
			Int("year", cfg.Year).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.Log.Fatal().Err(err).Msg("could not run server")
		}
	}()

	<-ctx.Done()
	h.Log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		h.Log.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = tracing.Shutdown(shutdownCtx)
}
