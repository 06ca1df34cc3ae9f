package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/s3relay/internal/domain"
	"github.com/shaiso/s3relay/internal/mq"
	"github.com/shaiso/s3relay/internal/retry"
	"github.com/shaiso/s3relay/internal/telemetry"
)

// Fetched — полученный запрос и токен корреляции.
type Fetched struct {
	Request domain.RequestMessage

	// CorrelationID — MessageId входящего сообщения; копируется в
	// CorrelationId ответа.
	CorrelationID string
}

// Fetcher забирает запросы из очереди.
type Fetcher struct {
	queue  RequestQueue
	policy retry.Policy
	logger *slog.Logger
}

// NewFetcher создаёт Fetcher. Повторяются только временные ошибки брокера.
func NewFetcher(queue RequestQueue, policy retry.Policy, logger *slog.Logger) *Fetcher {
	policy.Op = "fetch"
	policy.Retryable = mq.IsTransient
	policy.Logger = logger
	return &Fetcher{queue: queue, policy: policy, logger: logger}
}

// Fetch забирает один запрос.
//
// ok=false без ошибки означает пустую очередь: бюджет повторов при этом
// не расходуется. Документ, который не удалось разобрать, возвращается
// как запрос с пустыми полями — ответ на него всё равно нужен.
func (f *Fetcher) Fetch(ctx context.Context) (Fetched, bool, error) {
	start := time.Now()

	msg, err := retry.DoValue(ctx, f.policy, f.queue.Get)
	if errors.Is(err, mq.ErrNoMessage) {
		return Fetched{}, false, nil
	}
	if err != nil {
		return Fetched{}, false, err
	}

	telemetry.MessagesFetched.Inc()

	req, err := domain.DecodeRequest(msg.Body)
	if err != nil {
		f.logger.Warn("failed to decode request",
			"message_id", msg.ID,
			"error", err,
		)
	}

	f.logger.Debug("retrieved message",
		"message_id", msg.ID,
		"request_guid", req.RequestID,
		"took", time.Since(start),
	)

	return Fetched{Request: req, CorrelationID: msg.ID}, true, nil
}
