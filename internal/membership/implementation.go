// internal/membership/implementation.go
package membership

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeletedMessage is returned once a message has been acknowledged.
const DeletedMessage = "Message is deleted successfully"

// service implements the Service interface.
type service struct {
	records   Records
	sender    Sender
	ack       Acknowledger
	endpoints Endpoints
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a service.
type Option func(*service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithClock sets the clock statuses are derived against.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService creates a new message processing service.
func NewService(records Records, sender Sender, ack Acknowledger, endpoints Endpoints, opts ...Option) Service {
	s := &service{
		records:   records,
		sender:    sender,
		ack:       ack,
		endpoints: endpoints,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("memberrelay/membership"),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMessage enriches and forwards msg, then deletes it from its queue.
// Each step runs only when the previous one succeeded.
func (s *service) ProcessMessage(ctx context.Context, msg Message, src Source) (string, error) {
	ctx, span := s.tracer.Start(ctx, "membership.process_message",
		trace.WithAttributes(
			attribute.String("member.id", msg.MemberID),
			attribute.String("event.type", string(msg.EventType)),
		),
	)
	defer span.End()

	result, err := s.process(ctx, msg, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return result, nil
}

func (s *service) process(ctx context.Context, msg Message, src Source) (string, error) {
	kind, err := msg.EventType.Kind()
	if err != nil {
		return "", err
	}

	logger := s.logger.With(zap.String("memberId", msg.MemberID), zap.String("eventType", string(msg.EventType)))

	var response string
	switch kind {
	case KindProspect:
		response, err = s.handleProspect(ctx, msg)
	case KindMember:
		response, err = s.handleMember(ctx, msg)
	default:
		panic(fmt.Sprintf("membership: unhandled event kind %d", kind))
	}
	if err != nil {
		return "", err
	}
	logger.Info("webhook delivered", zap.String("response", response))

	if err := s.ack.Delete(ctx, src.QueueARN, src.ReceiptHandle); err != nil {
		return "", err
	}
	logger.Info("message deleted", zap.String("queueArn", src.QueueARN))

	return DeletedMessage, nil
}

func (s *service) handleMember(ctx context.Context, msg Message) (string, error) {
	data, err := s.memberData(ctx, msg.MemberID)
	if err != nil {
		return "", err
	}
	s.logger.Debug("member data before calling webhook",
		zap.String("memberId", msg.MemberID),
		zap.String("status", string(data.Member.Status)),
		zap.Int("contracts", len(data.Contracts)),
	)

	payload := NewMemberWebhookPayload(data, msg.EventType)
	return s.sender.Send(ctx, s.endpoints.Member, payload)
}

// memberData fetches the member and its contracts independently. Both reads
// are always issued; the first failure wins.
func (s *service) memberData(ctx context.Context, memberID string) (MemberData, error) {
	var (
		member    *Member
		contracts []Contract
		g         errgroup.Group
	)
	g.Go(func() error {
		m, err := s.records.GetMember(ctx, memberID)
		member = m
		return err
	})
	g.Go(func() error {
		c, err := s.records.GetContracts(ctx, memberID)
		contracts = c
		return err
	})
	if err := g.Wait(); err != nil {
		return MemberData{}, err
	}
	if member == nil {
		return MemberData{}, fmt.Errorf("member with memberId %s: %w", memberID, ErrNotFound)
	}

	return NewMemberData(*member, contracts, s.now()), nil
}

func (s *service) handleProspect(ctx context.Context, msg Message) (string, error) {
	if msg.ProspectID == nil || *msg.ProspectID == "" {
		return "", ErrMissingProspectID
	}

	prospect, err := s.records.GetProspect(ctx, *msg.ProspectID)
	if err != nil {
		return "", err
	}
	if prospect == nil {
		return "", fmt.Errorf("prospect with id %s: %w", *msg.ProspectID, ErrNotFound)
	}

	return s.sender.Send(ctx, s.endpoints.Prospect, NewProspectPayload(*prospect))
}
