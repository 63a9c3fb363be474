// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/api"
	"github.com/haysimo/siteops/internal/archive"
	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/config"
	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository/postgres"
	"github.com/haysimo/siteops/internal/scheduler"
	"github.com/haysimo/siteops/internal/service"
	"github.com/haysimo/siteops/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	store := postgres.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	auditCache, err := cache.NewAuditCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		auditCache = cache.NewNoopAuditCache()
	}

	// Initialize services
	ledgerService := service.NewLedgerService(store, auditCache)
	auditService := service.NewAuditService(store, auditCache)
	complaintService := service.NewComplaintService(store)
	siteService := service.NewSiteService(store)
	snapshotService := service.NewSnapshotService(store, auditCache)

	if err := ledgerService.InitStock(ctx, domain.DefaultStockRecord()); err != nil {
		log.Fatalf("Failed to initialize stock record: %v", err)
	}

	// Optional scheduled backups to the snapshot archive
	var backupScheduler *scheduler.Scheduler
	if cfg.Backup.Enabled {
		if !cfg.Archive.Enabled {
			log.Fatal("BACKUP_ENABLED requires ARCHIVE_ENABLED")
		}
		archiveClient, err := archive.NewClient(ctx, cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to connect to snapshot archive: %v", err)
		}
		backupScheduler = scheduler.New(cfg.Backup.Schedule, snapshotService, archiveClient)
		if err := backupScheduler.Start(); err != nil {
			log.Fatalf("Failed to start backup scheduler: %v", err)
		}
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Ledger:     ledgerService,
		Audit:      auditService,
		Complaints: complaintService,
		Site:       siteService,
		Snapshots:  snapshotService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	if backupScheduler != nil {
		backupScheduler.Stop()
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
