// cmd/relay-http/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"memberrelay/internal/app"
	"memberrelay/internal/config"
	"memberrelay/internal/logging"
	"memberrelay/internal/telemetry"
)

// Serves the same batch handler over HTTP for local runs against a queue
// event captured from the platform.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "memberrelay-http", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdown(context.Background())

	relay, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build relay", zap.Error(err))
	}
	defer relay.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router(relay.Handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("relay listening", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
