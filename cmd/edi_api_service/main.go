package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	archiveapp "github.com/enerhub/edi_services/internal/archive_service/app"
	archivepg "github.com/enerhub/edi_services/internal/archive_service/repository/postgres"
	"github.com/enerhub/edi_services/internal/outbox_service/adapters/renderer"
	outboxapp "github.com/enerhub/edi_services/internal/outbox_service/app"
	outboxpg "github.com/enerhub/edi_services/internal/outbox_service/repository/postgres"
	"github.com/enerhub/edi_services/internal/platform/config"
	"github.com/enerhub/edi_services/internal/platform/database"
	"github.com/enerhub/edi_services/internal/platform/filestorage"
	"github.com/enerhub/edi_services/internal/platform/logger"
	httptransport "github.com/enerhub/edi_services/internal/public_api_service/transport/http"
	"github.com/enerhub/edi_services/migrations"
)

const serviceName = "edi_api_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("EDI API service starting...", "port", cfg.HTTPPort)

	if err := database.ApplyMigrations(migrations.FS, ".", cfg.PostgresDSN, appLogger); err != nil {
		appLogger.Error("Failed to apply database migrations", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("EDI API service connected to PostgreSQL database")

	storage := filestorage.NewLocalStorage(cfg.FileStorageRoot)

	queueRepo := outboxpg.NewPgActorMessageQueueRepository(appLogger)
	bundleRepo := outboxpg.NewPgBundleRepository(appLogger)
	messageRepo := outboxpg.NewPgOutgoingMessageRepository(appLogger)
	delegationRepo := outboxpg.NewPgDelegationRepository(appLogger)
	archiveRepo := archivepg.NewPgArchiveRepository(appLogger)

	archiveService := archiveapp.NewArchiveService(dbPool, archiveRepo, storage, appLogger)
	resolver := outboxapp.NewDelegationResolver(delegationRepo, appLogger)
	enqueueService := outboxapp.NewEnqueueService(
		dbPool, queueRepo, bundleRepo, messageRepo, resolver, archiveService,
		cfg.BundleMaxMessageCount, appLogger)
	peekDequeueService := outboxapp.NewPeekDequeueService(
		dbPool, queueRepo, bundleRepo, messageRepo,
		renderer.NewDocumentRenderer(), storage, archiveService,
		cfg.PeekMeasurementsEnabled, appLogger)
	delegationService := outboxapp.NewDelegationService(dbPool, delegationRepo, appLogger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Messages:    httptransport.NewMessageHandler(enqueueService, appLogger),
		Peek:        httptransport.NewPeekHandler(peekDequeueService, appLogger),
		Delegations: httptransport.NewDelegationHandler(delegationService, appLogger),
		Archive:     httptransport.NewArchiveHandler(archiveService, cfg.ArchiveDefaultPageSize, appLogger),
	}, cfg.JWTAccessSecret, appLogger)

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTPPort), Handler: router}
	go func() {
		appLogger.Info(fmt.Sprintf("EDI API server listening on port %d", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", "error", err)
	}
	appLogger.Info("EDI API service stopped")
}
