package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS upload_journal (
	id           BIGSERIAL PRIMARY KEY,
	request_id   TEXT        NOT NULL,
	filename     TEXT        NOT NULL DEFAULT '',
	bucket       TEXT        NOT NULL DEFAULT '',
	status       TEXT        NOT NULL,
	description  TEXT        NOT NULL DEFAULT '',
	worker       TEXT        NOT NULL DEFAULT '',
	processed_at TIMESTAMPTZ NOT NULL
)`

// Postgres — журнал в PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres подключается к БД и создаёт таблицу журнала при отсутствии.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Record реализует Recorder.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO upload_journal (request_id, filename, bucket, status, description, worker, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		e.RequestID,
		e.Filename,
		e.Bucket,
		string(e.Status),
		e.Description,
		e.Worker,
		e.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry %s: %w", e.RequestID, err)
	}
	return nil
}

// Close реализует Recorder.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
