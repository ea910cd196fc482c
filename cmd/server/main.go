package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fleetfact/internal/config"
	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/logging"
	"github.com/JonMunkholm/fleetfact/internal/metrics"
	"github.com/JonMunkholm/fleetfact/internal/service"
	"github.com/JonMunkholm/fleetfact/internal/store"
	"github.com/JonMunkholm/fleetfact/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	metrics.Init()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"run_max_concurrent", cfg.Run.MaxConcurrent,
		"database", cfg.Database.Enabled(),
		"export", cfg.Pipeline.Export,
		"output_dir", cfg.Pipeline.OutputDir,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	// The database is optional; without it runs are only exported and kept in memory.
	var sink service.Sink
	if cfg.Database.Enabled() {
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err, "code", core.MapError(err).Code)
			os.Exit(1)
		}
		defer pool.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		st := store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		sink = st
	}

	limiter := service.NewRunLimiter(cfg.Run.MaxConcurrent, cfg.Run.MaxWaitTime)
	svc := service.New(service.OptionsFromConfig(cfg), limiter, sink)

	if cfg.Pipeline.RunOnStart {
		run, err := svc.RunFiles(ctx, cfg.Pipeline.OperationsFile, cfg.Pipeline.MaintenanceFile)
		if err != nil {
			slog.Error("startup run failed", "error", err, "message", core.FormatUserError(err))
		} else {
			slog.Info("startup run completed",
				"run_id", run.ID,
				"clean_rows", len(run.Result.CleanFacts),
				"exported", len(run.Exported),
			)
		}
	}

	server := web.NewServer(svc, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
