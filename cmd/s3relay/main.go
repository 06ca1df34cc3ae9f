// s3relay — переносит файлы из очереди запросов в S3-совместимое
// хранилище и отвечает в очередь ответов.
//
// Процесс:
//   - Читает конфигурацию (env > флаги > uploader.yml)
//   - Запускает max_workers воркеров, у каждого своё соединение с брокером
//   - Проверяет живость воркеров каждые heartbeat_interval
//   - Первый SIGINT/SIGTERM — штатная остановка, второй — немедленный выход
//
// Использование:
//
//	s3relay [--config uploader.yml] [--debug] [--max-workers N] [--access-key K] [--secret-key S]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shaiso/s3relay/internal/config"
	"github.com/shaiso/s3relay/internal/journal"
	"github.com/shaiso/s3relay/internal/relay"
	"github.com/shaiso/s3relay/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// flagKeys связывает имена флагов с ключами конфигурации.
var flagKeys = map[string]string{
	"debug":       "debug",
	"max-workers": "max_workers",
	"access-key":  "s3_access_key",
	"secret-key":  "s3_secret_key",
}

func main() {
	var configPath string
	exitCode := relay.ExitOK

	rootCmd := &cobra.Command{
		Use:           "s3relay",
		Short:         "Relay files from a message queue into S3 storage",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, flagOverrides(cmd.Flags()))
			if err != nil {
				return err
			}
			exitCode = run(cfg)
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to YAML or TOML config (default "+config.DefaultFile+")")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Int("max-workers", 1, "Number of parallel workers")
	flags.String("access-key", "", "S3 access key")
	flags.String("secret-key", "", "S3 secret key")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(relay.ExitFailure)
	}
	os.Exit(exitCode)
}

// flagOverrides возвращает только явно заданные флаги: значения по
// умолчанию не должны перекрывать файл конфигурации.
func flagOverrides(fs *pflag.FlagSet) map[string]string {
	out := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			out[key] = f.Value.String()
		}
	})
	return out
}

func run(cfg config.Config) int {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Debug, cfg.LogFormat)
	logger.Info("starting s3relay", "version", version)
	logger.Debug("configuration loaded", "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Journal (опционально)
	rec, err := journal.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		return relay.ExitFailure
	}
	defer rec.Close()
	if len(rec) > 0 {
		logger.Info("journal enabled", "sinks", len(rec))
	}

	sup := relay.NewSupervisor(relay.SupervisorConfig{
		Config:  cfg,
		Factory: newSessionFactory(logger),
		Journal: rec,
		Logger:  logger,
	})

	// graceful shutdown: первый сигнал останавливает воркеры,
	// второй прерывает ожидание
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	go watchSignals(sigCh, done, cancel, sup.Force, logger)

	// HTTP mux: /healthz + /metrics
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           telemetry.NewMux(sup.Healthy),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			srv.Shutdown(shutdownCtx)
		}()
	}

	return sup.Run(ctx)
}

// watchSignals отменяет работу по первому сигналу и вызывает force по
// второму. Возвращается, когда закрыт done.
func watchSignals(sigCh <-chan os.Signal, done <-chan struct{}, cancel, force func(), logger *slog.Logger) {
	select {
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	case <-done:
		return
	}

	select {
	case sig := <-sigCh:
		logger.Warn("second signal received, forcing exit", "signal", sig.String())
		force()
	case <-done:
	}
}
