// Package sqlite implements principal persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/harlowe/wholesail/internal/platform/storage/sqlitemigrate"
	"github.com/harlowe/wholesail/internal/services/identity/principal"
	"github.com/harlowe/wholesail/internal/services/identity/storage"
	_ "modernc.org/sqlite"

	"github.com/harlowe/wholesail/internal/services/identity/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for identity principals.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an identity SQLite store and applies bundled migrations.
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
	if err := store.runMigrations(); err != nil {
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

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// PutPrincipal persists one principal row.
func (s *Store) PutPrincipal(ctx context.Context, p principal.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("principal id is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("email is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO principals (id, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`,
		p.ID,
		p.Email,
		p.PasswordHash,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put principal: %w", err)
	}
	return nil
}

// GetPrincipal fetches one principal row by ID.
func (s *Store) GetPrincipal(ctx context.Context, principalID string) (principal.Principal, error) {
	return s.getPrincipal(ctx, "id", strings.TrimSpace(principalID))
}

// GetPrincipalByEmail fetches one principal row by normalized email.
func (s *Store) GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error) {
	return s.getPrincipal(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getPrincipal(ctx context.Context, column, key string) (principal.Principal, error) {
	if err := ctx.Err(); err != nil {
		return principal.Principal{}, err
	}
	if s == nil || s.sqlDB == nil {
		return principal.Principal{}, fmt.Errorf("storage is not configured")
	}
	if key == "" {
		return principal.Principal{}, fmt.Errorf("%s is required", column)
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM principals
WHERE `+column+` = ?
`, key)

	var p principal.Principal
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.Principal{}, storage.ErrNotFound
		}
		return principal.Principal{}, fmt.Errorf("get principal: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// DeletePrincipal removes one principal row.
//
// This exists for signup compensation; normal operation never deletes
// principals with an admitted member attached.
func (s *Store) DeletePrincipal(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return fmt.Errorf("principal id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM principals WHERE id = ?", principalID)
	if err != nil {
		return fmt.Errorf("delete principal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete principal rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PrincipalExists reports whether one principal row exists.
func (s *Store) PrincipalExists(ctx context.Context, principalID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return false, fmt.Errorf("principal id is required")
	}

	var found int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM principals WHERE id = ?", principalID).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check principal: %w", err)
	}
	return true, nil
}
