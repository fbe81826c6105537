// Package main is the entry point for the travel journal API server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server; everything else lives in the internal packages.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/travel-journal/internal/config"
	"github.com/sakif/travel-journal/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Environment variables win; .env in the working directory fills gaps.
	// ACCESS_TOKEN_SECRET is required and the process refuses to start without it.
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_LEVEL uses slog's numbering: -4 debug, 0 info, 4 warn, 8 error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
