/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the workforce engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + env), then apply command-line flags
  2. Initialize the SQLite fixture store and seed the demo employers
  3. Configure the live provider client
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides server.port)
  -db      SQLite database path (overrides store.path)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  WORKFORCE_CONFIG                 Path to a TOML config file
  WORKFORCE_PROVIDER_ACCESS_TOKEN  Fallback bearer token for the live provider
  WORKFORCE_<SECTION>_<KEY>        Any other config key

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/seed.go: Demo employers
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/workforce-engine/api"
	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/provider"
	"github.com/warp/workforce-engine/reconcile"
	"github.com/warp/workforce-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	// Flags
	port := flag.String("port", cfg.Server.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Store.Path, "SQLite database path")
	flag.Parse()

	if *dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			log.Fatalf("[Server] Failed to create data directory: %v", err)
		}
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("[Server] Failed to initialize database: %v", err)
	}
	defer store.Close()

	if cfg.Store.Seed {
		if err := sqlite.SeedDemo(context.Background(), store, time.Now()); err != nil {
			log.Fatalf("[Server] Failed to seed demo employers: %v", err)
		}
		log.Printf("[Server] Seeded demo employers %q and %q", sqlite.DemoEnvelopeEmployer, sqlite.DemoFlatEmployer)
	}

	// Live provider
	upstream := provider.NewHTTP(cfg.Provider.BaseURL, provider.StaticToken(cfg.Provider.AccessToken))
	upstream.APIVersion = cfg.Provider.APIVersion
	upstream.VersionHeader = cfg.Provider.VersionHeader
	upstream.Timeout = cfg.Provider.Timeout

	// Initialize handler
	handler := api.NewHandler(store, upstream)
	handler.Concurrency = cfg.Engine.Concurrency
	if cfg.Engine.RequireIndividualMatch {
		handler.Match = reconcile.RequireIndividual
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("[Server] Starting on http://localhost:%s", *port)
		log.Printf("[Server] API available at http://localhost:%s/api (deduction matching: %s)", *port, handler.Match)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("[Server] Forced to shutdown: %v", err)
	}

	log.Println("[Server] Stopped")
}
