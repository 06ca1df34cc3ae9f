package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/s3relay/internal/domain"
	"github.com/shaiso/s3relay/internal/mq"
	"github.com/shaiso/s3relay/internal/retry"
	"github.com/shaiso/s3relay/internal/telemetry"
)

// Publisher публикует ответы в очередь ответов.
type Publisher struct {
	queue  ReplyQueue
	policy retry.Policy
	logger *slog.Logger
}

// NewPublisher создаёт Publisher. Повторяются только временные ошибки брокера.
func NewPublisher(queue ReplyQueue, policy retry.Policy, logger *slog.Logger) *Publisher {
	policy.Op = "publish"
	policy.Retryable = mq.IsTransient
	policy.Logger = logger
	return &Publisher{queue: queue, policy: policy, logger: logger}
}

// Publish сериализует ответ и публикует его с CorrelationId =
// correlationID, чтобы отправитель сопоставил ответ с запросом.
func (p *Publisher) Publish(ctx context.Context, resp domain.ResponseMessage, correlationID string) error {
	body, err := resp.Encode()
	if err != nil {
		return err
	}

	msg := mq.Message{
		ID:            uuid.NewString(),
		CorrelationID: correlationID,
		Body:          body,
		Timestamp:     time.Now(),
	}

	err = retry.Do(ctx, p.policy, func(ctx context.Context) error {
		return p.queue.Put(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish reply %s: %w", resp.RequestID, err)
	}

	telemetry.RepliesPublished.WithLabelValues(string(resp.Status)).Inc()
	p.logger.Debug("published reply",
		"request_guid", resp.RequestID,
		"status", resp.Status,
		"correlation_id", correlationID,
	)
	return nil
}
