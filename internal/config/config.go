// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Region   string `env:"AWS_REGION" envDefault:"ap-southeast-2"`
	Env      string `env:"ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environments where a missing webhook URL skips the batch.
	TolerantEnvs []string `env:"TOLERANT_ENVS" envDefault:"dev" envSeparator:","`

	MemberTable     string `env:"MEMBER_TABLE"`
	ContractTable   string `env:"CONTRACT_TABLE"`
	SuspensionTable string `env:"SUSPENSION_TABLE"`
	ProspectTable   string `env:"PROSPECT_TABLE"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"dynamodb"`
	DatabaseURL  string `env:"DATABASE_URL"`

	MemberWebhookURL   string        `env:"WEBHOOK_MEMBER_URL"`
	ProspectWebhookURL string        `env:"WEBHOOK_PROSPECT_URL"`
	WebhookTimeout     time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookRate        float64       `env:"WEBHOOK_RATE_PER_SECOND" envDefault:"20"`
	WebhookBurst       int           `env:"WEBHOOK_BURST" envDefault:"5"`

	BatchConcurrency int `env:"BATCH_CONCURRENCY" envDefault:"10"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the relay cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendDynamoDB:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.BatchConcurrency <= 0 {
		errs = append(errs, errors.New("BATCH_CONCURRENCY must be positive"))
	}
	if c.WebhookRate < 0 {
		errs = append(errs, errors.New("WEBHOOK_RATE_PER_SECOND must not be negative"))
	}
	return errors.Join(errs...)
}
