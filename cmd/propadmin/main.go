package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/app"
	"github.com/rasmith-dev/propadmin/internal/pkg/config"
	"github.com/rasmith-dev/propadmin/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Str("app", "propadmin").Logger()
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, App: "propadmin"})

	console, err := app.NewConsole(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build console")
	}
	if err := console.Start(ctx); err != nil {
		log.Error().Err(err).Msg("session restore failed, continuing unauthenticated")
	}

	go func() {
		log.Info().Str("addr", cfg.Console.Addr).Str("api", cfg.API.BaseURL).Msg("console listening")
		if err := console.Echo.Start(cfg.Console.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("console server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := console.Echo.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("console shutdown")
	}
	if err := console.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("close storage")
	}
}
