package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the slice of the SQS client the dead-letter notifier uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DeadLetter forwards terminally failed documents to a queue for later
// inspection. Sending is best effort: a DLQ failure is logged and never
// masks the original processing error.
type DeadLetter struct {
	api      SQSAPI
	queueURL string
	logger   *slog.Logger
}

func NewDeadLetter(api SQSAPI, queueURL string, logger *slog.Logger) *DeadLetter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetter{api: api, queueURL: queueURL, logger: logger}
}

// SendFailure publishes the failed document reference and error message.
func (d *DeadLetter) SendFailure(ctx context.Context, bucket, key, message string) error {
	body, err := json.Marshal(map[string]string{
		"bucket":        bucket,
		"key":           key,
		"error_message": message,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode dlq message: %w", err)
	}
	if _, err := d.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
	}); err != nil {
		d.logger.Error("dlq.send.failed", "bucket", bucket, "key", key, "error", err)
		return fmt.Errorf("send to dlq: %w", err)
	}
	d.logger.Info("dlq.send.ok", "bucket", bucket, "key", key)
	return nil
}
