package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/PRECISEKY/food-admin-panel/internal/app/audit"
	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if cfg.Env == config.EnvLocal {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	logger.Info("starting audit", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := audit.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize audit", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("audit stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("audit stopped gracefully")
}
