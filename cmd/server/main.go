/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR chain-mirroring server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and environment configuration
  2. Initialize the zap global logger
  3. Open the SQLite store
  4. Build the chain bridge client and reconciliation gateway
  5. Build the lifecycle event publisher (Kafka, if brokers configured)
  6. Configure the HTTP router and start with graceful shutdown

ENVIRONMENT:
  PORT                  HTTP server port (default 8080)
  DATABASE_PATH         SQLite database path (":memory:" for in-memory)
  LEDGER_BRIDGE_URL     Chain bridge base URL
  LEDGER_MODE           required | best-effort | disabled
  LEDGER_CALL_TIMEOUT   Per-call timeout, e.g. "5s"
  KAFKA_BROKERS         Comma-separated brokers; empty disables events
  TRANSITIONS_FILE      Optional YAML status-transition table
  TRANSITIONS_ENFORCE   Reject off-table transitions when true

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the store and the event publisher.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warp/hrchain/api"
	"github.com/warp/hrchain/config"
	"github.com/warp/hrchain/events"
	eventskafka "github.com/warp/hrchain/events/kafka"
	"github.com/warp/hrchain/hr"
	"github.com/warp/hrchain/ledger"
	"github.com/warp/hrchain/reconcile"
	"github.com/warp/hrchain/store/sqlite"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// System of record
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Chain bridge + reconciliation gateway
	client := ledger.NewBridgeClient(cfg.Ledger.BridgeURL, cfg.Ledger.CallTimeout)
	gateway := reconcile.New(client, cfg.Ledger.Mode, cfg.Ledger.CallTimeout)

	// Lifecycle events
	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := eventskafka.NewPublisher(cfg.Kafka.Brokers)
		defer kp.Close()
		publisher = kp
		logger.Info("Lifecycle events enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Status transition table
	transitions := hr.DefaultTransitions(cfg.Transitions.Enforce)
	if cfg.Transitions.Path != "" {
		transitions, err = hr.LoadTransitions(cfg.Transitions.Path, cfg.Transitions.Enforce)
		if err != nil {
			logger.Fatal("Failed to load transitions table", zap.Error(err))
		}
	}

	service := hr.NewService(store, gateway, publisher, transitions)
	handler := api.NewHandler(service, cfg.Ledger.Mode)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.Port),
			zap.String("ledger_mode", string(cfg.Ledger.Mode)),
			zap.String("bridge_url", cfg.Ledger.BridgeURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
