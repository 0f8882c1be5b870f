// Package sqlite implements inbox persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/harlowe/wholesail/internal/platform/storage/sqlitemigrate"
	"github.com/harlowe/wholesail/internal/services/notifier/domain"
	"github.com/harlowe/wholesail/internal/services/notifier/storage"
	_ "modernc.org/sqlite"

	"github.com/harlowe/wholesail/internal/services/notifier/storage/sqlite/migrations"
)

const defaultListLimit = 50

// Store provides SQLite-backed persistence for the notification inbox.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an inbox SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutNotice persists one notice row. Re-storing an existing notice ID
// returns ErrDuplicate so retried deliveries stay idempotent.
func (s *Store) PutNotice(ctx context.Context, notice domain.Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(notice.ID) == "" {
		return fmt.Errorf("notice id is required")
	}
	if strings.TrimSpace(notice.RecipientID) == "" {
		return fmt.Errorf("recipient id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notices (id, recipient_id, topic, subject, body, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		notice.ID,
		notice.RecipientID,
		notice.Topic,
		notice.Subject,
		notice.Body,
		toMillis(notice.CreatedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("put notice: %w", err)
	}
	return nil
}

// ListNotices fetches a recipient's notices, newest first.
func (s *Store) ListNotices(ctx context.Context, recipientID string, limit int) ([]domain.Notice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, fmt.Errorf("recipient id is required")
	}
	if limit < 1 {
		limit = defaultListLimit
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, topic, subject, body, created_at
FROM notices
WHERE recipient_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []domain.Notice
	for rows.Next() {
		var notice domain.Notice
		var createdAt int64
		if err := rows.Scan(&notice.ID, &notice.RecipientID, &notice.Topic, &notice.Subject, &notice.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notice.CreatedAt = fromMillis(createdAt)
		notices = append(notices, notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}
	return notices, nil
}
