/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pharmacy ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Open SQLite key-value store
  3. Restore the ledger from storage
  4. Start the background re-sync scheduler
  5. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: pharmacy.db)
                  Use ":memory:" for an in-memory database
  -key-prefix     Namespace for storage keys
  -strict         Reject unknown and duplicate ids
  -sync-interval  Retry interval for failed saves (0 disables)

ENVIRONMENT:
  PHARMACY_PORT, PHARMACY_DB, PHARMACY_KEY_PREFIX, PHARMACY_STRICT,
  PHARMACY_SYNC_INTERVAL, PHARMACY_CORS_ORIGINS, PHARMACY_LOG_LEVEL.
  A .env file in the working directory is read first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and make a final save
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/pharmacy-ledger/api"
	"github.com/warp/pharmacy-ledger/config"
	"github.com/warp/pharmacy-ledger/pharmacy"
	"github.com/warp/pharmacy-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	ledger, report := pharmacy.Open(ctx, pharmacy.NewPersister(store, cfg.KeyPrefix), pharmacy.Options{
		Strict: cfg.Strict,
		Logger: logger.With("component", "ledger"),
	})
	if report.Degraded() {
		logger.Warn("some collections could not be restored", "failed", len(report.Failed))
	}

	scheduler := api.NewSyncScheduler(ledger, logger)
	scheduler.CheckInterval = cfg.SyncInterval
	scheduler.Start()

	handler := api.NewHandler(ledger, logger.With("component", "api"))
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d/api", cfg.Port), "db", cfg.DBPath, "strict", cfg.Strict)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	scheduler.Stop()
	if _, err := ledger.Sync(shutdownCtx); err != nil {
		logger.Error("final save failed", "error", err)
	}

	logger.Info("server stopped")
}
