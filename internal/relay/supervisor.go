package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/s3relay/internal/config"
	"github.com/shaiso/s3relay/internal/journal"
	"github.com/shaiso/s3relay/internal/retry"
)

// DefaultStartStagger — пауза между стартами воркеров, чтобы не открывать
// все соединения к брокеру одновременно.
const DefaultStartStagger = 250 * time.Millisecond

// SupervisorConfig — конфигурация Supervisor.
type SupervisorConfig struct {
	Config  config.Config
	Factory ConnectionFactory

	// Journal (опционально), общий для всех воркеров.
	Journal journal.Recorder

	// Retry — политика для операций с очередями (default: 5 попыток, 5s).
	Retry retry.Policy

	PollInterval time.Duration
	StartStagger time.Duration

	Logger *slog.Logger
}

// Supervisor запускает воркеры, следит за их живостью и останавливает их.
type Supervisor struct {
	cfg     config.Config
	factory ConnectionFactory
	journal journal.Recorder
	retry   retry.Policy

	pollInterval time.Duration
	stagger      time.Duration
	heartbeat    time.Duration

	logger *slog.Logger

	mu      sync.RWMutex
	workers []*Worker

	forceOnce sync.Once
	force     chan struct{}
}

// NewSupervisor создаёт Supervisor.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.Retry
	if policy.Tries <= 0 {
		policy = retry.Default("", nil, logger)
	}

	stagger := cfg.StartStagger
	if stagger <= 0 {
		stagger = DefaultStartStagger
	}

	heartbeat := cfg.Config.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = config.DefaultHeartbeatInterval
	}

	return &Supervisor{
		cfg:          cfg.Config,
		factory:      cfg.Factory,
		journal:      cfg.Journal,
		retry:        policy,
		pollInterval: cfg.PollInterval,
		stagger:      stagger,
		heartbeat:    heartbeat,
		logger:       logger,
		force:        make(chan struct{}),
	}
}

// Run запускает воркеры и блокируется до остановки. Возвращает код
// завершения процесса.
//
// Отмена ctx (сигнал завершения) запускает штатную остановку: каждый
// воркер получает запрос на остановку, Run ждёт их всех. Force прерывает
// ожидание.
func (s *Supervisor) Run(ctx context.Context) int {
	s.logger.Info("starting workers", "max_workers", s.cfg.MaxWorkers)

	if err := s.startWorkers(ctx); err != nil {
		s.logger.Error("failed to start workers", "error", err)
		s.stopWorkers()
		return ExitFailure
	}

	code := s.heartbeatLoop(ctx)

	if forced := s.stopWorkers(); forced {
		code = ExitFailure
	} else if code == ExitOK {
		for _, w := range s.snapshot() {
			if err := w.Err(); err != nil {
				s.logger.Error("worker terminated abnormally", "worker", w.Name(), "error", err)
				code = ExitFailure
			}
		}
	}

	s.logger.Info("closed all workers, exiting now", "exit_code", code)
	return code
}

// Force прерывает ожидание остановки воркеров.
func (s *Supervisor) Force() {
	s.forceOnce.Do(func() { close(s.force) })
}

// Healthy сообщает, что все запущенные воркеры живы.
func (s *Supervisor) Healthy() bool {
	for _, w := range s.snapshot() {
		if !w.Alive() {
			return false
		}
	}
	return true
}

// Workers возвращает запущенные воркеры.
func (s *Supervisor) Workers() []*Worker {
	return s.snapshot()
}

func (s *Supervisor) snapshot() []*Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// startWorkers запускает MaxWorkers воркеров с паузой stagger между ними.
// Отмена ctx во время старта прекращает запуск без ошибки.
func (s *Supervisor) startWorkers(ctx context.Context) error {
	for i := 0; i < s.cfg.MaxWorkers; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.stagger):
			}
		}

		name := fmt.Sprintf("worker-%d", i+1)
		session, err := s.factory(ctx, s.cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("start %s: %w", name, err)
		}

		w := NewWorker(WorkerConfig{
			Name:         name,
			Session:      session,
			StorageHost:  s.cfg.S3Host,
			Retry:        s.retry,
			PollInterval: s.pollInterval,
			Journal:      s.journal,
			Logger:       s.logger,
		})
		w.Start(ctx)

		s.mu.Lock()
		s.workers = append(s.workers, w)
		s.mu.Unlock()
	}
	return nil
}

// heartbeatLoop проверяет воркеры каждые heartbeat до отмены ctx или
// первого мёртвого воркера.
func (s *Supervisor) heartbeatLoop(ctx context.Context) int {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		if !s.checkWorkers() {
			return ExitFailure
		}

		select {
		case <-ctx.Done():
			s.logger.Info("termination signal received, stopping workers")
			return ExitOK
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) checkWorkers() bool {
	for _, w := range s.snapshot() {
		if !w.Alive() {
			s.logger.Error("heartbeat failed", "worker", w.Name(), "error", w.Err())
			return false
		}
		s.logger.Info("heartbeat success", "worker", w.Name())
	}
	return true
}

// stopWorkers просит все воркеры остановиться и ждёт их.
// Возвращает true, если ожидание прервал Force.
func (s *Supervisor) stopWorkers() bool {
	workers := s.snapshot()
	for _, w := range workers {
		w.RequestStop()
	}

	for _, w := range workers {
		select {
		case <-w.Done():
		case <-s.force:
			s.logger.Warn("forced shutdown, not waiting for workers")
			return true
		}
	}
	return false
}
