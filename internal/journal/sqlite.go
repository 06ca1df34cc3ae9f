package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS upload_journal (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id   TEXT NOT NULL,
	filename     TEXT NOT NULL DEFAULT '',
	bucket       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	worker       TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_upload_journal_request ON upload_journal(request_id);`

// SQLite — журнал в локальном файле SQLite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite открывает (или создаёт) файл журнала.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Все воркеры пишут через одно соединение: SQLite не любит
	// конкурентных писателей.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Record реализует Recorder.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_journal (request_id, filename, bucket, status, description, worker, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID,
		e.Filename,
		e.Bucket,
		string(e.Status),
		e.Description,
		e.Worker,
		e.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry %s: %w", e.RequestID, err)
	}
	return nil
}

// Close реализует Recorder.
func (s *SQLite) Close() error {
	return s.db.Close()
}
