package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/s3relay/internal/domain"
)

// lookup возвращает последнюю запись по идентификатору запроса.
func (s *SQLite) lookup(ctx context.Context, requestID string) (Entry, bool, error) {
	var (
		e         Entry
		status    string
		processed string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT request_id, filename, bucket, status, description, worker, processed_at
		 FROM upload_journal WHERE request_id = ? ORDER BY id DESC LIMIT 1`,
		requestID,
	).Scan(&e.RequestID, &e.Filename, &e.Bucket, &status, &e.Description, &e.Worker, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup journal entry %s: %w", requestID, err)
	}

	e.Status = domain.Status(status)
	if e.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed); err != nil {
		return Entry{}, false, fmt.Errorf("parse processed_at %q: %w", processed, err)
	}
	return e, true, nil
}

func (s *SQLite) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM upload_journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}
