// Package storage defines the persistence boundary for member records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harlowe/wholesail/internal/services/members/domain"
)

var (
	// ErrNotFound indicates no member row matched the lookup key.
	ErrNotFound = errors.New("member not found")
	// ErrConflict indicates a write violated a uniqueness constraint.
	ErrConflict = errors.New("member conflict")
)

// ListFilter narrows and pages a member listing.
type ListFilter struct {
	// Status filters by approval status; empty selects all statuses.
	Status domain.Status
	// Search matches username or email case-insensitively when non-empty.
	Search string
	Offset int
	Limit  int
}

// MemberPage is one page of members plus the unpaged match count.
type MemberPage struct {
	Members    []domain.Member
	TotalCount int
}

// Store is the member persistence boundary.
//
// The three status mutations are conditional single-statement updates keyed by
// member ID so concurrent admin actions on the same member serialize at the
// database without read-then-write races.
type Store interface {
	PutMember(ctx context.Context, member domain.Member) error
	GetMember(ctx context.Context, memberID string) (domain.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (domain.Member, error)
	ListMembers(ctx context.Context, filter ListFilter) (MemberPage, error)

	ApproveMember(ctx context.Context, memberID string, approvedAt time.Time) error
	RejectMember(ctx context.Context, memberID string, reason string, rejectedAt time.Time) error
	ResetMemberToPending(ctx context.Context, memberID string, resetAt time.Time) error
}
