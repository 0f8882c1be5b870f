// Package authz gates administrative operations on the approval workflow.
package authz

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/members/storage"
)

var (
	// ErrNotAdmin indicates the caller is not an authenticated administrator.
	ErrNotAdmin = apperrors.New(apperrors.CodeAuthzNotAdmin, "caller is not an administrator")
	// ErrActorRequired indicates no authenticated caller identity was supplied.
	ErrActorRequired = apperrors.New(apperrors.CodeAuthzSessionInvalid, "caller identity is required")
)

// MemberReader resolves the current role of one member from durable storage.
type MemberReader interface {
	GetMember(ctx context.Context, memberID string) (domain.Member, error)
}

// Gate decides whether a caller may invoke administrative operations.
//
// The store-backed check is the single authoritative source for mutating
// operations: the member role is re-read on every call so a stale session
// claim can never outrank the current database role.
type Gate struct {
	members MemberReader
}

// NewGate builds a gate over the member store.
func NewGate(members MemberReader) *Gate {
	return &Gate{members: members}
}

// RequireAdmin fails unless the acting member currently holds the admin role.
//
// It runs before any store mutation; callers receiving an error must not have
// produced side effects.
func (g *Gate) RequireAdmin(ctx context.Context, actorMemberID string) error {
	if g == nil || g.members == nil {
		return errors.New("authorization gate is not configured")
	}
	actorMemberID = strings.TrimSpace(actorMemberID)
	if actorMemberID == "" {
		return ErrActorRequired
	}
	member, err := g.members.GetMember(ctx, actorMemberID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotAdmin
		}
		return apperrors.Wrap(apperrors.CodeExternalService, "resolve caller role", err)
	}
	if member.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}

// ClaimsHint reports whether session claims look administrative.
//
// This is a non-authoritative fast path for UI gating only; it must never be
// the sole gate for a mutating operation.
func ClaimsHint(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), string(domain.RoleAdmin))
}
