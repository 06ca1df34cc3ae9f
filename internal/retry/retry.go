// Package retry повторяет операцию при временных ошибках.
//
// Политика намеренно простая: фиксированное число попыток и фиксированная
// задержка между ними. Backoff > 1 включает геометрический рост задержки,
// по умолчанию он равен 1 и задержка постоянна.
//
// Последняя попытка не защищена: её ошибка возвращается как есть, даже
// если она временная.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/s3relay/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultTries = 5
	DefaultDelay = 5 * time.Second
)

// Policy — параметры повторов.
type Policy struct {
	// Tries — общее число попыток, включая первую (default: 5).
	Tries int

	// Delay — пауза перед первым повтором.
	Delay time.Duration

	// Backoff — множитель задержки; <= 0 означает 1.
	Backoff float64

	// Retryable определяет временные ошибки.
	// nil — повторять любую ошибку.
	Retryable func(error) bool

	// Op — имя операции для логов и метрик.
	Op string

	Logger *slog.Logger
}

// Default возвращает политику с задержкой 5s и пятью попытками.
func Default(op string, retryable func(error) bool, logger *slog.Logger) Policy {
	return Policy{
		Tries:     DefaultTries,
		Delay:     DefaultDelay,
		Backoff:   1,
		Retryable: retryable,
		Op:        op,
		Logger:    logger,
	}
}

func (p Policy) normalize() Policy {
	if p.Tries <= 0 {
		p.Tries = DefaultTries
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = 1
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Do выполняет fn согласно политике.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue выполняет fn согласно политике и возвращает её результат.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalize()
	delay := p.Delay

	for attempt := 1; attempt < p.Tries; attempt++ {
		v, err := fn(ctx)
		if err == nil || !p.Retryable(err) {
			return v, err
		}

		p.Logger.Warn(err.Error()+", retrying",
			"op", p.Op,
			"attempt", attempt,
			"tries", p.Tries,
			"delay", delay,
		)
		telemetry.RetriesTotal.WithLabelValues(p.Op).Inc()

		// Ждём с учётом context
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}

		delay = time.Duration(float64(delay) * p.Backoff)
	}

	return fn(ctx)
}
