// internal/clients/webhook_client.go
package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrWebhookNotConfigured = errors.New("webhook URL is not set")
	ErrWebhookDelivery      = errors.New("failed to send webhook")
)

const maxResponseBytes = 1 << 20

// IsWebhookNotConfigured reports whether err stems from a missing webhook URL.
func IsWebhookNotConfigured(err error) bool {
	return errors.Is(err, ErrWebhookNotConfigured)
}

type WebhookClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewWebhookClient creates a webhook client. A nil limiter disables rate limiting.
func NewWebhookClient(httpClient *http.Client, limiter *rate.Limiter, logger *zap.Logger) *WebhookClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookClient{httpClient: httpClient, limiter: limiter, logger: logger}
}

// Send posts payload as snake_case JSON to endpoint and returns the response body.
func (c *WebhookClient) Send(ctx context.Context, endpoint string, payload any) (string, error) {
	if endpoint == "" {
		return "", ErrWebhookNotConfigured
	}

	body, err := MarshalSnakeCase(payload)
	if err != nil {
		return "", fmt.Errorf("encode webhook payload: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrWebhookDelivery, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWebhookDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending webhook", zap.String("url", endpoint), zap.ByteString("payload", body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWebhookDelivery, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrWebhookDelivery, err)
	}
	c.logger.Info("webhook response", zap.String("url", endpoint), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", ErrWebhookDelivery, resp.Status)
	}
	return string(respBody), nil
}
