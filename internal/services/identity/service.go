// Package identity manages authentication principals and their credentials.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/id"
	"github.com/harlowe/wholesail/internal/services/identity/principal"
	"github.com/harlowe/wholesail/internal/services/identity/storage"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrServiceNotConfigured indicates the identity service is missing wiring.
	ErrServiceNotConfigured = errors.New("identity service is not configured")
	// ErrEmailTaken indicates the email already has a principal.
	ErrEmailTaken = apperrors.New(apperrors.CodeIdentityEmailTaken, "email is already registered")
	// ErrInvalidCredentials indicates login with an unknown email or wrong password.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeIdentityCredentialsInvalid, "email or password is incorrect")
)

// Service owns principal registration, authentication, and removal.
type Service struct {
	store    storage.Store
	clock    func() time.Time
	newID    func() (string, error)
	hashCost int
}

// NewService builds an identity service with production defaults.
func NewService(store storage.Store) *Service {
	return &Service{
		store:    store,
		clock:    time.Now,
		newID:    id.NewID,
		hashCost: bcrypt.DefaultCost,
	}
}

// NewServiceForTest builds an identity service with injectable determinism.
//
// The reduced hash cost keeps credential tests fast without weakening the
// production default.
func NewServiceForTest(store storage.Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		clock:    clock,
		newID:    newID,
		hashCost: bcrypt.MinCost,
	}
}

// Register creates one principal from untrusted credentials.
func (s *Service) Register(ctx context.Context, input principal.Credentials) (principal.Principal, error) {
	if s == nil || s.store == nil {
		return principal.Principal{}, ErrServiceNotConfigured
	}
	normalized, err := principal.NormalizeCredentials(input)
	if err != nil {
		return principal.Principal{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(normalized.Password), s.hashCost)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("hash password: %w", err)
	}
	principalID, err := s.newID()
	if err != nil {
		return principal.Principal{}, fmt.Errorf("generate principal id: %w", err)
	}

	now := s.clock().UTC()
	record := principal.Principal{
		ID:           principalID,
		Email:        normalized.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.PutPrincipal(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return principal.Principal{}, ErrEmailTaken
		}
		return principal.Principal{}, apperrors.Wrap(apperrors.CodeExternalService, "put principal", err)
	}
	return record, nil
}

// Authenticate verifies credentials and returns the matching principal.
func (s *Service) Authenticate(ctx context.Context, email, password string) (principal.Principal, error) {
	if s == nil || s.store == nil {
		return principal.Principal{}, ErrServiceNotConfigured
	}
	record, err := s.store.GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return principal.Principal{}, ErrInvalidCredentials
		}
		return principal.Principal{}, apperrors.Wrap(apperrors.CodeExternalService, "get principal", err)
	}
	if err := bcrypt.CompareHashAndPassword(record.PasswordHash, []byte(password)); err != nil {
		return principal.Principal{}, ErrInvalidCredentials
	}
	return record, nil
}

// Delete removes one principal.
//
// Used by signup compensation; deleting an unknown principal is an error so
// compensation failures stay observable.
func (s *Service) Delete(ctx context.Context, principalID string) error {
	if s == nil || s.store == nil {
		return ErrServiceNotConfigured
	}
	if err := s.store.DeletePrincipal(ctx, principalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "principal not found")
		}
		return apperrors.Wrap(apperrors.CodeExternalService, "delete principal", err)
	}
	return nil
}

// Exists reports whether one principal exists.
func (s *Service) Exists(ctx context.Context, principalID string) (bool, error) {
	if s == nil || s.store == nil {
		return false, ErrServiceNotConfigured
	}
	return s.store.PrincipalExists(ctx, principalID)
}
