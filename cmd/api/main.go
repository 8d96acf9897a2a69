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

	"github.com/joho/godotenv"
	"github.com/riskibarqy/cricket-battle/internal/app"
	"github.com/riskibarqy/cricket-battle/internal/config"
	"github.com/riskibarqy/cricket-battle/internal/observability"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFileErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewService(cfg.LogLevel, cfg.ServiceName, cfg.ServiceVersion, cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()
	if envFileErr != nil {
		logger.Debug("no .env file loaded, reading process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("start observability", "error", err)
		os.Exit(1)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	go application.RunMatchSync(ctx)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend, "provider", cfg.ScoreProvider)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		logger.Error("http server failed", "error", err)
		exitCode = 1
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		exitCode = 1
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown observability", "error", err)
	}
	if err := application.Close(); err != nil {
		logger.Warn("close stores", "error", err)
	}

	logger.Info("http server stopped")
	if exitCode != 0 {
		_ = logger.Sync()
		os.Exit(exitCode)
	}
}
