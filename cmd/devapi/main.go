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

	"github.com/rasmith-dev/propadmin/internal/devserver"
	"github.com/rasmith-dev/propadmin/internal/pkg/config"
	"github.com/rasmith-dev/propadmin/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Str("app", "devapi").Logger()
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, App: "devapi"})

	dev := cfg.DevAPI
	srv, err := devserver.New(devserver.Config{
		JWTSecret:     dev.JWTSecret,
		TokenTTL:      dev.TokenTTL,
		AdminEmail:    dev.AdminEmail,
		AdminPassword: dev.AdminPassword,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build dev api")
	}

	e := srv.Handler()
	go func() {
		log.Info().Str("addr", dev.Addr).Str("admin", dev.AdminEmail).Msg("dev api listening")
		if err := e.Start(dev.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("dev api stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dev api shutdown")
	}
}
