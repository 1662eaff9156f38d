// Package app composes the relay from its configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"memberrelay/internal/clients"
	"memberrelay/internal/config"
	"memberrelay/internal/membership"
	"memberrelay/internal/store"
)

// App holds the composed relay and the resources it owns.
type App struct {
	Handler *membership.Handler
	db      *sql.DB
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// New builds the relay: record store, webhook and queue clients, processor
// and batch handler.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	a := &App{}
	tables := store.Tables{
		Member:     cfg.MemberTable,
		Contract:   cfg.ContractTable,
		Suspension: cfg.SuspensionTable,
		Prospect:   cfg.ProspectTable,
	}

	var records membership.Records
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		records = store.NewPostgresStore(db, tables)
	default:
		records = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), tables, logger.Named("store"))
	}

	httpClient := &http.Client{
		Timeout:   cfg.WebhookTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	var limiter *rate.Limiter
	if cfg.WebhookRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WebhookRate), cfg.WebhookBurst)
	}
	webhooks := clients.NewWebhookClient(httpClient, limiter, logger.Named("webhook"))
	queue := clients.NewQueueClient(sqs.NewFromConfig(awsCfg), logger.Named("queue"))

	svc := membership.NewService(records, webhooks, queue,
		membership.Endpoints{Member: cfg.MemberWebhookURL, Prospect: cfg.ProspectWebhookURL},
		membership.WithLogger(logger.Named("processor")),
	)
	a.Handler = membership.NewHandler(svc, membership.HandlerConfig{
		Env:             cfg.Env,
		TolerantEnvs:    cfg.TolerantEnvs,
		Concurrency:     cfg.BatchConcurrency,
		IsNotConfigured: clients.IsWebhookNotConfigured,
	}, logger.Named("handler"))

	return a, nil
}
