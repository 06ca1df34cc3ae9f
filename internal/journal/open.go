package journal

import (
	"context"
	"fmt"

	"github.com/shaiso/s3relay/internal/config"
)

// opener создаёт один sink.
type opener struct {
	name string
	open func(ctx context.Context) (Recorder, error)
}

// Open создаёт sinks, указанные в конфигурации.
// Если ни один не указан, возвращается пустой Multi.
func Open(ctx context.Context, cfg config.Config) (Multi, error) {
	var openers []opener

	if dsn := cfg.JournalPostgresDSN; dsn != "" {
		openers = append(openers, opener{"postgres", func(ctx context.Context) (Recorder, error) {
			return NewPostgres(ctx, dsn)
		}})
	}
	if addr := cfg.JournalRedisAddr; addr != "" {
		openers = append(openers, opener{"redis", func(ctx context.Context) (Recorder, error) {
			return NewRedis(ctx, RedisOptions{Addr: addr})
		}})
	}
	if path := cfg.JournalSQLitePath; path != "" {
		openers = append(openers, opener{"sqlite", func(ctx context.Context) (Recorder, error) {
			return NewSQLite(ctx, path)
		}})
	}

	return openAll(ctx, openers)
}

// openAll открывает sinks по порядку. При ошибке уже открытые
// закрываются.
func openAll(ctx context.Context, openers []opener) (Multi, error) {
	var m Multi
	for _, o := range openers {
		r, err := o.open(ctx)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("open %s journal: %w", o.name, err)
		}
		m = append(m, r)
	}
	return m, nil
}
