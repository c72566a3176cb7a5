package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/ledger"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldBackend, cfg.DataBackend, applog.FieldError, err)
		os.Exit(1)
	}

	svc := services.NewLedgerService(ledger.NewStore(res.Tables, bcfg.Names), res.Events)

	// A store that cannot be read at startup is not fatal: the session
	// starts with whatever loaded and POST /api/reload tries again.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.Load(loadCtx); err != nil {
		logger.Warn("Initial load incomplete", applog.FieldError, err)
	}
	cancelLoad()

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting budget server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"events", res.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
