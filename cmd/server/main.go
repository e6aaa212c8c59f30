package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/cleanfile/internal/config"
	"github.com/JonMunkholm/cleanfile/internal/logging"
	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"clean_max_concurrent", cfg.Clean.MaxConcurrent,
		"clean_workers", cfg.Clean.Workers,
		"history_enabled", cfg.Database.HistoryEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	// Run history is optional; without a database the service keeps only
	// recent runs in memory.
	var history service.History
	if cfg.Database.HistoryEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := store.AutoMigrate(ctx, pool); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		history = store.New(pool)
	} else {
		slog.Info("DATABASE_URL not set, run history disabled")
	}

	svc, err := service.New(service.OptionsFromConfig(cfg.Clean), history)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(svc, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active runs to complete (with timeout)
		if status := svc.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for cleaning runs to complete", "active", status.Active)
			if err := svc.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("cleaning runs did not complete in time", "error", err)
			} else {
				slog.Info("all cleaning runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		svc.Close()
		os.Exit(1)
	}

	<-done
	if err := svc.Close(); err != nil {
		slog.Warn("failed to remove cleaned files", "error", err)
	}
	slog.Info("server stopped")
}
