// Package sqlite implements member persistence over SQLite.
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
	"github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/members/storage"
	"github.com/harlowe/wholesail/internal/services/members/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for member records.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a member SQLite store and applies bundled migrations.
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

// PutMember persists one member row.
func (s *Store) PutMember(ctx context.Context, member domain.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(member.ID) == "" {
		return fmt.Errorf("member id is required")
	}

	var approvedAt sql.NullInt64
	if member.ApprovedAt != nil {
		approvedAt = sql.NullInt64{Int64: toMillis(*member.ApprovedAt), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO members (id, username, email, role, tier, status, approved_at, rejected_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		member.ID,
		member.Username,
		member.Email,
		string(member.Role),
		string(member.Tier),
		string(member.Status),
		approvedAt,
		member.RejectedReason,
		toMillis(member.CreatedAt),
		toMillis(member.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put member: %w", err)
	}
	return nil
}

// GetMember fetches one member row by ID.
func (s *Store) GetMember(ctx context.Context, memberID string) (domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return domain.Member{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Member{}, fmt.Errorf("storage is not configured")
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return domain.Member{}, fmt.Errorf("member id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, role, tier, status, approved_at, rejected_reason, created_at, updated_at
FROM members
WHERE id = ?
`, memberID)
	member, err := scanMember(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, storage.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// GetMemberByEmail fetches one member row by normalized email.
func (s *Store) GetMemberByEmail(ctx context.Context, email string) (domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return domain.Member{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Member{}, fmt.Errorf("storage is not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Member{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, role, tier, status, approved_at, rejected_reason, created_at, updated_at
FROM members
WHERE email = ?
`, email)
	member, err := scanMember(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, storage.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("get member by email: %w", err)
	}
	return member, nil
}

// ListMembers returns one filtered page of members plus the unpaged count.
func (s *Store) ListMembers(ctx context.Context, filter storage.ListFilter) (storage.MemberPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemberPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemberPage{}, fmt.Errorf("storage is not configured")
	}
	if filter.Limit <= 0 {
		return storage.MemberPage{}, fmt.Errorf("limit must be greater than zero")
	}
	if filter.Offset < 0 {
		return storage.MemberPage{}, fmt.Errorf("offset must not be negative")
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		where = append(where, "(LOWER(username) LIKE ? OR LOWER(email) LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM members "+whereSQL, args...).Scan(&total); err != nil {
		return storage.MemberPage{}, fmt.Errorf("count members: %w", err)
	}

	listArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, username, email, role, tier, status, approved_at, rejected_reason, created_at, updated_at
FROM members
`+whereSQL+`
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`, listArgs...)
	if err != nil {
		return storage.MemberPage{}, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	page := storage.MemberPage{TotalCount: total}
	for rows.Next() {
		member, err := scanMember(rows.Scan)
		if err != nil {
			return storage.MemberPage{}, fmt.Errorf("scan member: %w", err)
		}
		page.Members = append(page.Members, member)
	}
	if err := rows.Err(); err != nil {
		return storage.MemberPage{}, fmt.Errorf("iterate members: %w", err)
	}
	return page, nil
}

// ApproveMember transitions one member to APPROVED in a single conditional update.
func (s *Store) ApproveMember(ctx context.Context, memberID string, approvedAt time.Time) error {
	return s.updateStatus(ctx, memberID, `
UPDATE members
SET status = ?, approved_at = ?, rejected_reason = '', updated_at = ?
WHERE id = ?
`, string(domain.StatusApproved), toMillis(approvedAt), toMillis(approvedAt), memberID)
}

// RejectMember transitions one member to REJECTED in a single conditional update.
//
// The reason is validated by the domain layer; the store only records it.
func (s *Store) RejectMember(ctx context.Context, memberID string, reason string, rejectedAt time.Time) error {
	return s.updateStatus(ctx, memberID, `
UPDATE members
SET status = ?, rejected_reason = ?, approved_at = NULL, updated_at = ?
WHERE id = ?
`, string(domain.StatusRejected), reason, toMillis(rejectedAt), memberID)
}

// ResetMemberToPending returns one member to PENDING in a single conditional update.
func (s *Store) ResetMemberToPending(ctx context.Context, memberID string, resetAt time.Time) error {
	return s.updateStatus(ctx, memberID, `
UPDATE members
SET status = ?, approved_at = NULL, rejected_reason = '', updated_at = ?
WHERE id = ?
`, string(domain.StatusPending), toMillis(resetAt), memberID)
}

func (s *Store) updateStatus(ctx context.Context, memberID string, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(memberID) == "" {
		return fmt.Errorf("member id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member status rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type memberScanner func(dest ...any) error

func scanMember(scan memberScanner) (domain.Member, error) {
	var member domain.Member
	var role, tier, status string
	var approvedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&member.ID,
		&member.Username,
		&member.Email,
		&role,
		&tier,
		&status,
		&approvedAt,
		&member.RejectedReason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Member{}, err
	}
	member.Role = domain.Role(role)
	member.Tier = domain.Tier(tier)
	member.Status = domain.Status(status)
	if approvedAt.Valid {
		value := fromMillis(approvedAt.Int64)
		member.ApprovedAt = &value
	}
	member.CreatedAt = fromMillis(createdAt)
	member.UpdatedAt = fromMillis(updatedAt)
	return member, nil
}
