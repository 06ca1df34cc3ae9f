package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Keys — обязательные ключи в порядке проверки.
var Keys = []string{
	"max_workers",
	"s3_host",
	"s3_port",
	"s3_is_secure",
	"s3_access_key",
	"s3_secret_key",
	"mq_host",
	"mq_port",
	"mq_queue_manager",
	"mq_channel",
	"mq_request_queue",
	"mq_replyto_queue",
	"debug",
}

// OptionalKeys — ключи, для которых есть значение по умолчанию.
var OptionalKeys = map[string]string{
	"mq_user":              DefaultMQUser,
	"mq_password":          DefaultMQPassword,
	"heartbeat_interval":   DefaultHeartbeatInterval.String(),
	"metrics_addr":         "",
	"log_format":           DefaultLogFormat,
	"journal_postgres_dsn": "",
	"journal_redis_addr":   "",
	"journal_sqlite_path":  "",
}

// Load собирает конфигурацию из трёх источников.
//
// Приоритет: переменная окружения (ключ в верхнем регистре) > флаг CLI >
// файл. flags содержит только явно заданные флаги, ключом служит имя
// параметра конфигурации (например "s3_access_key").
//
// Пустой path означает DefaultFile; отсутствие файла по умолчанию не
// ошибка, отсутствие явно указанного файла — ошибка.
func Load(path string, flags map[string]string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	file, err := readFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			file = map[string]any{}
		} else {
			return Config{}, err
		}
	}

	values := make(map[string]string, len(Keys)+len(OptionalKeys))
	var missing []string
	for _, key := range Keys {
		v, ok := lookup(key, flags, file)
		if !ok {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: [%s]", ErrMissingKey, strings.Join(missing, ", "))
	}

	for key, def := range OptionalKeys {
		if v, ok := lookup(key, flags, file); ok {
			values[key] = v
		} else {
			values[key] = def
		}
	}

	cfg, err := parse(values)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookup(key string, flags map[string]string, file map[string]any) (string, bool) {
	if v, ok := os.LookupEnv(strings.ToUpper(key)); ok {
		return strings.TrimSpace(v), true
	}
	if v, ok := flags[key]; ok {
		return strings.TrimSpace(v), true
	}
	if v, ok := file[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v)), true
	}
	return "", false
}

// readFile декодирует YAML или TOML в плоскую карту ключей.
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	out := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode toml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return out, nil
}

func parse(v map[string]string) (Config, error) {
	var (
		cfg Config
		err error
	)

	if cfg.MaxWorkers, err = parseInt("max_workers", v["max_workers"]); err != nil {
		return Config{}, err
	}
	if cfg.S3Port, err = parseInt("s3_port", v["s3_port"]); err != nil {
		return Config{}, err
	}
	if cfg.S3IsSecure, err = parseBool("s3_is_secure", v["s3_is_secure"]); err != nil {
		return Config{}, err
	}
	if cfg.MQPort, err = parseInt("mq_port", v["mq_port"]); err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = parseBool("debug", v["debug"]); err != nil {
		return Config{}, err
	}
	if cfg.HeartbeatInterval, err = parseInterval("heartbeat_interval", v["heartbeat_interval"]); err != nil {
		return Config{}, err
	}

	cfg.S3Host = v["s3_host"]
	cfg.S3AccessKey = v["s3_access_key"]
	cfg.S3SecretKey = v["s3_secret_key"]
	cfg.MQHost = v["mq_host"]
	cfg.MQQueueManager = v["mq_queue_manager"]
	cfg.MQChannel = v["mq_channel"]
	cfg.MQRequestQueue = v["mq_request_queue"]
	cfg.MQReplyToQueue = v["mq_replyto_queue"]
	cfg.MQUser = v["mq_user"]
	cfg.MQPassword = v["mq_password"]
	cfg.MetricsAddr = v["metrics_addr"]
	cfg.LogFormat = strings.ToLower(v["log_format"])
	cfg.JournalPostgresDSN = v["journal_postgres_dsn"]
	cfg.JournalRedisAddr = v["journal_redis_addr"]
	cfg.JournalSQLitePath = v["journal_sqlite_path"]

	return cfg, nil
}

func parseInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, raw)
	}
	return n, nil
}

func parseBool(key, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidValue, key, raw)
}

// parseInterval принимает длительность Go ("15s") или целое число секунд.
func parseInterval(key, raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidValue, key, raw)
	}
	return d, nil
}
