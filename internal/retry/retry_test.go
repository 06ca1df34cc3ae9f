package retry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var (
	errTransient = errors.New("transient")
	errPermanent = errors.New("permanent")
)

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func testPolicy(buf *bytes.Buffer, tries int) Policy {
	return Policy{
		Tries:     tries,
		Delay:     time.Millisecond,
		Retryable: isTransient,
		Op:        "test",
		Logger:    slog.New(slog.NewTextHandler(buf, nil)),
	}
}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	var buf bytes.Buffer
	calls := 0

	got, err := DoValue(context.Background(), testPolicy(&buf, 5), func(context.Context) (string, error) {
		calls++
		if calls <= 3 {
			return "", errTransient
		}
		return "msg", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "msg" {
		t.Errorf("expected msg, got %q", got)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}

	// Три предупреждения — по одному на каждый повтор
	if n := strings.Count(buf.String(), "level=WARN"); n != 3 {
		t.Errorf("expected 3 warnings, got %d:\n%s", n, buf.String())
	}
}

func TestDo_FinalAttemptIsUnguarded(t *testing.T) {
	var buf bytes.Buffer
	calls := 0

	err := Do(context.Background(), testPolicy(&buf, 3), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error from final attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if n := strings.Count(buf.String(), "level=WARN"); n != 2 {
		t.Errorf("expected tries-1 = 2 warnings, got %d", n)
	}
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	var buf bytes.Buffer
	calls := 0

	err := Do(context.Background(), testPolicy(&buf, 5), func(context.Context) error {
		calls++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if buf.Len() != 0 {
		t.Errorf("no warning expected, got %s", buf.String())
	}
}

func TestDo_SingleTry(t *testing.T) {
	var buf bytes.Buffer
	calls := 0

	err := Do(context.Background(), testPolicy(&buf, 1), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	var buf bytes.Buffer
	p := testPolicy(&buf, 5)
	p.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, p, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ConstantDelayByDefault(t *testing.T) {
	var buf bytes.Buffer
	p := testPolicy(&buf, 4)
	p.Delay = 30 * time.Millisecond

	start := time.Now()
	_ = Do(context.Background(), p, func(context.Context) error { return errTransient })
	elapsed := time.Since(start)

	// 3 паузы по 30ms; при удвоении было бы 210ms
	if elapsed < 90*time.Millisecond {
		t.Errorf("expected at least 90ms, got %v", elapsed)
	}
	if elapsed >= 200*time.Millisecond {
		t.Errorf("delay should not grow with backoff=1, took %v", elapsed)
	}
}

func TestPolicy_Normalize(t *testing.T) {
	p := Policy{}.normalize()

	if p.Tries != DefaultTries {
		t.Errorf("expected %d tries, got %d", DefaultTries, p.Tries)
	}
	if p.Backoff != 1 {
		t.Errorf("expected backoff 1, got %v", p.Backoff)
	}
	if !p.Retryable(errPermanent) {
		t.Error("nil Retryable should retry every error")
	}
	if p.Logger == nil {
		t.Error("logger should default to slog.Default")
	}
}
