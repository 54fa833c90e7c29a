package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	outboxapp "github.com/enerhub/edi_services/internal/outbox_service/app"
	outboxpg "github.com/enerhub/edi_services/internal/outbox_service/repository/postgres"
	"github.com/enerhub/edi_services/internal/platform/config"
	"github.com/enerhub/edi_services/internal/platform/database"
	"github.com/enerhub/edi_services/internal/platform/logger"
)

const serviceName = "bundle_sweeper_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Bundle sweeper service starting...",
		"interval", cfg.SweepInterval(), "close_after", cfg.BundleCloseAfter())

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Bundle sweeper connected to PostgreSQL database")

	sweeper := outboxapp.NewBundleSweeper(
		dbPool, outboxpg.NewPgBundleRepository(appLogger), cfg.BundleCloseAfter(), appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper.Run(ctx, cfg.SweepInterval())
	appLogger.Info("Bundle sweeper service stopped")
}
