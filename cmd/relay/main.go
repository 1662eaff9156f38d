// cmd/relay/main.go
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"memberrelay/internal/app"
	"memberrelay/internal/config"
	"memberrelay/internal/logging"
	"memberrelay/internal/telemetry"
)

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

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, "memberrelay", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdown(ctx)

	relay, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build relay", zap.Error(err))
	}
	defer relay.Close()

	logger.Info("starting relay", zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))
	lambda.Start(relay.Handler.HandleSQSEvent)
}
