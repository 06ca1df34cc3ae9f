package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaiso/s3relay/internal/journal"
	"github.com/shaiso/s3relay/internal/retry"
	"github.com/shaiso/s3relay/internal/telemetry"
)

// DefaultPollInterval — пауза после пустого опроса очереди.
const DefaultPollInterval = 500 * time.Millisecond

// State — состояние воркера.
type State int32

const (
	StateRunning State = iota
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// WorkerConfig — конфигурация Worker.
type WorkerConfig struct {
	Name    string
	Session *Session

	// StorageHost попадает в описание ошибки недоступного хранилища.
	StorageHost string

	// Retry — шаблон политики для get и publish; Op и Retryable
	// выставляются самим воркером.
	Retry retry.Policy

	// PollInterval — пауза на пустой очереди (default: 500ms).
	PollInterval time.Duration

	// Journal (опционально).
	Journal journal.Recorder

	Logger *slog.Logger
}

// Worker обрабатывает запросы одной сессии последовательно, поэтому
// ответы публикуются в порядке получения запросов.
type Worker struct {
	name    string
	session *Session

	fetcher   *Fetcher
	uploader  *Uploader
	publisher *Publisher
	journal   journal.Recorder

	pollInterval time.Duration
	logger       *slog.Logger

	// Lifecycle
	state    atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	err      error // пишется до close(done)
}

// NewWorker создаёт Worker в состоянии Running; цикл запускает Start.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = telemetry.WithWorker(logger, cfg.Name)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Worker{
		name:         cfg.Name,
		session:      cfg.Session,
		fetcher:      NewFetcher(cfg.Session.Requests, cfg.Retry, logger),
		uploader:     NewUploader(cfg.Session.Store, cfg.StorageHost, logger),
		publisher:    NewPublisher(cfg.Session.Replies, cfg.Retry, logger),
		journal:      cfg.Journal,
		pollInterval: pollInterval,
		logger:       logger,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Name возвращает имя воркера.
func (w *Worker) Name() string { return w.name }

// Start запускает цикл в отдельной горутине.
//
// Отмена ctx не прерывает воркер: операции идут на контексте без отмены,
// а остановка выполняется только через RequestStop/Stop.
func (w *Worker) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	telemetry.WorkersAlive.Inc()
	w.logger.Info("worker started")
	go w.run(ctx)
}

// RequestStop просит воркер остановиться и не ждёт.
// Запрос увидит следующая итерация цикла.
func (w *Worker) RequestStop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Stop просит воркер остановиться и ждёт перехода в Stopped.
func (w *Worker) Stop() {
	w.RequestStop()
	<-w.done
}

// Done закрывается, когда воркер перешёл в Stopped.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Alive сообщает, работает ли цикл воркера.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// State возвращает текущее состояние.
func (w *Worker) State() State { return State(w.state.Load()) }

// Err возвращает причину завершения: nil после штатной остановки.
// Значение определено только после закрытия Done.
func (w *Worker) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
		w.shutdown()
	}()

	w.err = w.loop(ctx)
}

// loop — основной цикл Running.
func (w *Worker) loop(ctx context.Context) error {
	for {
		select {
		case <-w.stopCh:
			w.logger.Info("stop requested")
			return nil
		default:
		}

		fetched, ok, err := w.fetcher.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch request: %w", err)
		}
		if !ok {
			w.logger.Debug("no messages in queue", "retry_in", w.pollInterval)
			w.idle()
			continue
		}

		fatal, err := w.process(ctx, fetched)
		if err != nil {
			return err
		}
		if fatal {
			w.logger.Error("destination unavailable, stopping worker",
				"bucket", fetched.Request.BucketName,
			)
			return ErrDestinationUnavailable
		}
	}
}

// process загружает файл, отвечает и пишет журнал.
// Ответ публикуется и при ошибке загрузки.
func (w *Worker) process(ctx context.Context, f Fetched) (bool, error) {
	resp, fatal := w.uploader.Upload(ctx, f.Request)

	if err := w.publisher.Publish(ctx, resp, f.CorrelationID); err != nil {
		return fatal, err
	}

	if w.journal != nil {
		entry := journal.NewEntry(f.Request, resp, w.name)
		if err := w.journal.Record(ctx, entry); err != nil {
			telemetry.JournalErrors.Inc()
			w.logger.Warn("failed to record journal entry",
				"request_guid", f.Request.RequestID,
				"error", err,
			)
		}
	}

	return fatal, nil
}

// idle ждёт pollInterval или запроса на остановку.
func (w *Worker) idle() {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.stopCh:
	}
}

// shutdown — Stopping → Stopped: закрывает очередь запросов, затем
// очередь ответов, затем соединение.
func (w *Worker) shutdown() {
	w.state.Store(int32(StateStopping))

	var errs []error
	if err := w.session.Requests.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close request queue: %w", err))
	}
	if err := w.session.Replies.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reply queue: %w", err))
	}
	if w.session.Conn != nil {
		if err := w.session.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		w.logger.Warn("failed to release worker resources", "error", err)
	}

	w.state.Store(int32(StateStopped))
	telemetry.WorkersAlive.Dec()

	if w.err != nil {
		w.logger.Error("worker stopped", "error", w.err)
		return
	}
	w.logger.Info("worker stopped")
}
