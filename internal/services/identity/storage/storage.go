// Package storage defines the persistence boundary for identity principals.
package storage

import (
	"context"
	"errors"

	"github.com/harlowe/wholesail/internal/services/identity/principal"
)

var (
	// ErrNotFound indicates no principal row matched the lookup key.
	ErrNotFound = errors.New("principal not found")
	// ErrConflict indicates a write violated the email uniqueness constraint.
	ErrConflict = errors.New("principal conflict")
)

// Store is the principal persistence boundary.
type Store interface {
	PutPrincipal(ctx context.Context, p principal.Principal) error
	GetPrincipal(ctx context.Context, principalID string) (principal.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error)
	DeletePrincipal(ctx context.Context, principalID string) error
	PrincipalExists(ctx context.Context, principalID string) (bool, error)
}
