package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Значения по умолчанию для необязательных ключей.
const (
	DefaultFile              = "uploader.yml"
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultMQUser            = "guest"
	DefaultMQPassword        = "guest"
	DefaultLogFormat         = "json"
)

// Config — конфигурация процесса.
//
// Собирается один раз при старте и дальше передаётся по значению:
// воркеры получают копию и никогда её не меняют.
type Config struct {
	MaxWorkers int

	// Object storage (S3-совместимый endpoint).
	S3Host      string
	S3Port      int
	S3IsSecure  bool
	S3AccessKey string
	S3SecretKey string

	// Message queue.
	MQHost         string
	MQPort         int
	MQQueueManager string // AMQP virtual host
	MQChannel      string // имя соединения, видно в management UI брокера
	MQRequestQueue string
	MQReplyToQueue string
	MQUser         string
	MQPassword     string

	Debug     bool
	LogFormat string

	HeartbeatInterval time.Duration
	MetricsAddr       string

	// Журнал обработки (все sinks необязательны).
	JournalPostgresDSN string
	JournalRedisAddr   string
	JournalSQLitePath  string
}

// S3Endpoint возвращает host:port хранилища.
func (c Config) S3Endpoint() string {
	return net.JoinHostPort(c.S3Host, strconv.Itoa(c.S3Port))
}

// AMQPURL собирает URL подключения к брокеру.
func (c Config) AMQPURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.MQUser, c.MQPassword),
		Host:   net.JoinHostPort(c.MQHost, strconv.Itoa(c.MQPort)),
		Path:   "/" + c.MQQueueManager,
	}
	return u.String()
}

// LogValue реализует slog.LogValuer; секреты маскируются.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_workers", c.MaxWorkers),
		slog.String("s3_endpoint", c.S3Endpoint()),
		slog.Bool("s3_is_secure", c.S3IsSecure),
		slog.String("s3_access_key", mask(c.S3AccessKey)),
		slog.String("s3_secret_key", mask(c.S3SecretKey)),
		slog.String("mq_host", c.MQHost),
		slog.Int("mq_port", c.MQPort),
		slog.String("mq_queue_manager", c.MQQueueManager),
		slog.String("mq_channel", c.MQChannel),
		slog.String("mq_request_queue", c.MQRequestQueue),
		slog.String("mq_replyto_queue", c.MQReplyToQueue),
		slog.String("mq_user", c.MQUser),
		slog.Bool("debug", c.Debug),
		slog.Duration("heartbeat_interval", c.HeartbeatInterval),
		slog.String("metrics_addr", c.MetricsAddr),
		slog.Bool("journal_postgres", c.JournalPostgresDSN != ""),
		slog.String("journal_redis_addr", c.JournalRedisAddr),
		slog.String("journal_sqlite_path", c.JournalSQLitePath),
	)
}

// Validate проверяет, что конфигурация пригодна для запуска.
func (c Config) Validate() error {
	if c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be at least 1, got %d", ErrInvalidValue, c.MaxWorkers)
	}
	if err := validatePort("s3_port", c.S3Port); err != nil {
		return err
	}
	if err := validatePort("mq_port", c.MQPort); err != nil {
		return err
	}
	if c.MQRequestQueue == c.MQReplyToQueue {
		return fmt.Errorf("%w: mq_request_queue and mq_replyto_queue must differ", ErrInvalidValue)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat_interval must be positive", ErrInvalidValue)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log_format must be json or text, got %q", ErrInvalidValue, c.LogFormat)
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s out of range: %d", ErrInvalidValue, key, port)
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
