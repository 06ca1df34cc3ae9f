// Package journal записывает итог обработки каждого запроса.
//
// Журнал необязателен и не влияет на ответ: ошибки записи логируются
// вызывающим и считаются в метрике, но воркер продолжает работу.
//
// Sinks:
//   - postgres.go — таблица upload_journal через pgx
//   - redis.go    — hash с TTL на каждый запрос
//   - sqlite.go   — локальный файл для установок без внешней БД
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/shaiso/s3relay/internal/domain"
)

// Entry — запись об обработанном запросе.
type Entry struct {
	RequestID   string
	Filename    string
	Bucket      string
	Status      domain.Status
	Description string
	Worker      string
	ProcessedAt time.Time
}

// NewEntry собирает запись из запроса и ответа.
func NewEntry(req domain.RequestMessage, resp domain.ResponseMessage, worker string) Entry {
	return Entry{
		RequestID:   req.RequestID,
		Filename:    req.Filename,
		Bucket:      req.BucketName,
		Status:      resp.Status,
		Description: resp.ErrorDescription,
		Worker:      worker,
		ProcessedAt: time.Now().UTC(),
	}
}

// Recorder — sink журнала.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Multi пишет запись во все sinks.
type Multi []Recorder

// Record реализует Recorder. Ошибки всех sinks объединяются.
func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close закрывает все sinks.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
