// internal/clients/queue_client.go
package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

var (
	ErrInvalidQueueARN = errors.New("invalid queue ARN")
	ErrQueueDelete     = errors.New("failed to delete message")
)

// SQSAPI is the part of the SQS client the queue client uses.
type SQSAPI interface {
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type QueueClient struct {
	api    SQSAPI
	logger *zap.Logger
}

func NewQueueClient(api SQSAPI, logger *zap.Logger) *QueueClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueClient{api: api, logger: logger}
}

// QueueURLFromARN turns arn:<partition>:sqs:<region>:<account>:<name> into
// the queue URL.
func QueueURLFromARN(queueARN string) (string, error) {
	parsed, err := arn.Parse(queueARN)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidQueueARN, queueARN, err)
	}
	if parsed.Service != "sqs" || parsed.Region == "" || parsed.AccountID == "" || parsed.Resource == "" {
		return "", fmt.Errorf("%w %q", ErrInvalidQueueARN, queueARN)
	}
	return fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", parsed.Region, parsed.AccountID, parsed.Resource), nil
}

// Delete removes the message identified by receiptHandle from the queue.
func (c *QueueClient) Delete(ctx context.Context, queueARN, receiptHandle string) error {
	queueURL, err := QueueURLFromARN(queueARN)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueueDelete, err)
	}

	_, err = c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("%w from %s: %w", ErrQueueDelete, queueURL, err)
	}

	c.logger.Debug("deleted message", zap.String("queueUrl", queueURL))
	return nil
}
