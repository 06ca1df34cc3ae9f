package telemetry

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования.
// debug=true включает DEBUG, иначе INFO.
func LogLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger(debug bool, format string) *slog.Logger {
	return NewLogger(os.Stdout, debug, format)
}

// NewLogger создаёт логгер, пишущий в w, и делает его глобальным.
func NewLogger(w io.Writer, debug bool, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     LogLevel(debug),
		AddSource: debug,
	}

	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithWorker возвращает логгер с добавленным worker.
func WithWorker(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("worker", name)
}

// WithRequestID возвращает логгер с добавленным request_guid.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_guid", requestID)
}
