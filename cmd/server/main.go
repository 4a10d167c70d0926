/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory valuation and garment costing
  server. Handles configuration, dependency injection, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env vars / optional .env file)
  2. Parse command-line flags (flags override config)
  3. Initialize the structured logger
  4. Open the SQLite store
  5. Wire the ledger and costing services into the API
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides HTTP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database
  -seed    Load the demo dataset into an empty database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reorder monitor
  4. Close the database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/costing.db"

  # Fresh in-memory instance with demo data
  ./server -db=":memory:" -seed

ENVIRONMENT:
  APP_ENV, APP_LOG_LEVEL, DB_PATH, HTTP_HOST, HTTP_PORT
  (see pkg/config)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/costing-engine/api"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/inventory"
	"github.com/warp/costing-engine/pkg/config"
	"github.com/warp/costing-engine/pkg/logger"
	"github.com/warp/costing-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Flags override config.
	port := flag.Int("port", cfg.HTTP.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DB.Path, "SQLite database path")
	seed := flag.Bool("seed", false, "load the demo dataset into an empty database")
	flag.Parse()
	cfg.HTTP.Port = *port

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize database")
	}
	defer store.Close()

	// Domain services
	ledger := inventory.NewLedger(store, log)
	sheets := costing.NewService(store, log)

	if *seed {
		if err := api.Seed(context.Background(), ledger, sheets); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().Msg("demo dataset loaded")
	}

	// HTTP
	handler := api.NewHandler(ledger, sheets)
	router := api.NewRouter(handler)

	monitor := api.NewReorderMonitor(ledger, log)
	monitor.Start()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.App.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	monitor.Stop()

	log.Info().Msg("server stopped")
}
