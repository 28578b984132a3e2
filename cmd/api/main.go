package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"knowledge-tool/internal/app"
	"knowledge-tool/internal/config"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Shutdown completed with errors", "error", err)
		}
	}()

	if err := a.Serve(ctx); err != nil {
		slog.Error("API server stopped", "error", err)
		stop()
		_ = a.Close()
		os.Exit(1)
	}
}
