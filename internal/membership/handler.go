// internal/membership/handler.go
package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	successMessage = "All webhook responses successful"
	skippedMessage = "Webhook URL is not set in dev environment, skipping the webhook call"
)

// Response is the transport-level result of a batch.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// HandlerConfig controls batch handling.
type HandlerConfig struct {
	// Env is the environment tag of the running process.
	Env string
	// TolerantEnvs lists environments where an unconfigured webhook skips
	// the batch instead of failing it.
	TolerantEnvs []string
	// Concurrency bounds how many records are processed at once.
	Concurrency int
	// IsNotConfigured identifies the unconfigured webhook failure.
	IsNotConfigured func(error) bool
}

type Handler struct {
	service  Service
	cfg      HandlerConfig
	logger   *zap.Logger
	outcomes metric.Int64Counter
}

func NewHandler(service Service, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.IsNotConfigured == nil {
		cfg.IsNotConfigured = func(error) bool { return false }
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{service: service, cfg: cfg, logger: logger}
	counter, err := otel.Meter("memberrelay/membership").Int64Counter("relay.messages",
		metric.WithDescription("Queue messages processed, by outcome"),
	)
	if err != nil {
		logger.Warn("messages counter unavailable", zap.Error(err))
	} else {
		h.outcomes = counter
	}
	return h
}

type envelope struct {
	Message string `json:"Message"`
}

// DecodeRecord unwraps the notification envelope of a queue record and
// parses the message inside it.
func DecodeRecord(record events.SQSMessage) (Message, error) {
	var env envelope
	if err := json.Unmarshal([]byte(record.Body), &env); err != nil {
		return Message{}, fmt.Errorf("%w: record %s body: %w", ErrInvalidMessage, record.MessageId, err)
	}

	var msg Message
	if err := json.Unmarshal([]byte(env.Message), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: record %s message: %w", ErrInvalidMessage, record.MessageId, err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, fmt.Errorf("%w: record %s: %w", ErrInvalidMessage, record.MessageId, err)
	}
	return msg, nil
}

// HandleSQSEvent processes every record in the batch. A record that cannot be
// decoded aborts the batch before any record is processed. Otherwise every
// record is attempted, and messages that failed stay on the queue.
func (h *Handler) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (Response, error) {
	logger := h.logger.With(zap.String("batchId", uuid.NewString()))
	logger.Info("received event", zap.Int("records", len(event.Records)))

	msgs := make([]Message, len(event.Records))
	for i, record := range event.Records {
		msg, err := DecodeRecord(record)
		if err != nil {
			logger.Error("could not decode record", zap.String("messageId", record.MessageId), zap.Error(err))
			return Response{}, err
		}
		msgs[i] = msg
	}

	errs := make([]error, len(msgs))
	var g errgroup.Group
	g.SetLimit(h.cfg.Concurrency)
	for i, msg := range msgs {
		record := event.Records[i]
		g.Go(func() error {
			logger.Info("processing message",
				zap.String("messageId", record.MessageId),
				zap.String("memberId", msg.MemberID),
				zap.String("eventType", string(msg.EventType)),
			)
			_, errs[i] = h.service.ProcessMessage(ctx, msg, Source{
				QueueARN:      record.EventSourceARN,
				ReceiptHandle: record.ReceiptHandle,
			})
			return nil
		})
	}
	_ = g.Wait()

	return h.outcome(ctx, logger, errs)
}

func (h *Handler) outcome(ctx context.Context, logger *zap.Logger, errs []error) (Response, error) {
	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	h.count(ctx, "delivered", len(errs)-len(failures))

	if len(failures) == 0 {
		logger.Info(successMessage)
		return newResponse(http.StatusOK, successMessage), nil
	}

	if h.tolerated(failures) {
		h.count(ctx, "skipped", len(failures))
		logger.Warn(skippedMessage, zap.String("env", h.cfg.Env))
		return newResponse(http.StatusNotImplemented, skippedMessage), nil
	}

	h.count(ctx, "failed", len(failures))
	err := errors.Join(failures...)
	logger.Error("webhook error", zap.String("env", h.cfg.Env), zap.Error(err))
	return Response{}, err
}

// tolerated reports whether every failure is an unconfigured webhook in an
// environment that allows it.
func (h *Handler) tolerated(failures []error) bool {
	if !slices.Contains(h.cfg.TolerantEnvs, h.cfg.Env) {
		return false
	}
	for _, err := range failures {
		if !h.cfg.IsNotConfigured(err) {
			return false
		}
	}
	return true
}

func (h *Handler) count(ctx context.Context, outcome string, n int) {
	if h.outcomes == nil || n == 0 {
		return
	}
	h.outcomes.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}

func newResponse(status int, message string) Response {
	body, _ := json.Marshal(message)
	return Response{StatusCode: status, Body: string(body)}
}

// ServeEvents accepts a queue batch over HTTP and answers with the batch
// response status code.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event events.SQSEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.HandleSQSEvent(r.Context(), event)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidMessage) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	json.NewEncoder(w).Encode(resp)
}
