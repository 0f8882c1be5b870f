package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harlowe/wholesail/internal/services/identity/principal"
	"github.com/harlowe/wholesail/internal/services/identity/storage"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
}

type fakeStore struct {
	principals map[string]principal.Principal
}

func newFakeStore() *fakeStore {
	return &fakeStore{principals: make(map[string]principal.Principal)}
}

func (f *fakeStore) PutPrincipal(_ context.Context, p principal.Principal) error {
	for _, existing := range f.principals {
		if existing.Email == p.Email {
			return storage.ErrConflict
		}
	}
	f.principals[p.ID] = p
	return nil
}

func (f *fakeStore) GetPrincipal(_ context.Context, principalID string) (principal.Principal, error) {
	p, ok := f.principals[principalID]
	if !ok {
		return principal.Principal{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPrincipalByEmail(_ context.Context, email string) (principal.Principal, error) {
	for _, p := range f.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return principal.Principal{}, storage.ErrNotFound
}

func (f *fakeStore) DeletePrincipal(_ context.Context, principalID string) error {
	if _, ok := f.principals[principalID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.principals, principalID)
	return nil
}

func (f *fakeStore) PrincipalExists(_ context.Context, principalID string) (bool, error) {
	_, ok := f.principals[principalID]
	return ok, nil
}

func newTestService(store storage.Store) *Service {
	counter := 0
	return NewServiceForTest(store, fixedClock, func() (string, error) {
		counter++
		return "principal-" + string(rune('0'+counter)), nil
	})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeStore())
	ctx := context.Background()

	registered, err := service.Register(ctx, principal.Credentials{
		Email:    " Buyer@Example.COM ",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Email != "buyer@example.com" {
		t.Fatalf("email = %q, want normalized", registered.Email)
	}
	if string(registered.PasswordHash) == "correct horse battery" {
		t.Fatalf("password must not be stored in clear")
	}
	if !registered.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("created at = %v, want %v", registered.CreatedAt, fixedClock())
	}

	authenticated, err := service.Authenticate(ctx, "buyer@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authenticated.ID != registered.ID {
		t.Fatalf("authenticated id = %q, want %q", authenticated.ID, registered.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   principal.Credentials
		wantErr error
	}{
		{
			name:    "missing email",
			input:   principal.Credentials{Password: "long enough password"},
			wantErr: principal.ErrEmptyEmail,
		},
		{
			name:    "invalid email",
			input:   principal.Credentials{Email: "not-an-email", Password: "long enough password"},
			wantErr: principal.ErrInvalidEmail,
		},
		{
			name:    "short password",
			input:   principal.Credentials{Email: "a@b.com", Password: "short"},
			wantErr: principal.ErrPasswordTooShort,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := service.Register(ctx, tc.input); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeStore())
	ctx := context.Background()

	credentials := principal.Credentials{Email: "a@b.com", Password: "long enough password"}
	if _, err := service.Register(ctx, credentials); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, credentials); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want %v", err, ErrEmailTaken)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeStore())
	ctx := context.Background()

	if _, err := service.Register(ctx, principal.Credentials{Email: "a@b.com", Password: "long enough password"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := service.Authenticate(ctx, "ghost@b.com", "long enough password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := service.Authenticate(ctx, "a@b.com", "wrong password entirely"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestDeleteAndExists(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	registered, err := service.Register(ctx, principal.Credentials{Email: "a@b.com", Password: "long enough password"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	exists, err := service.Exists(ctx, registered.ID)
	if err != nil || !exists {
		t.Fatalf("exists = %t/%v, want true", exists, err)
	}

	if err := service.Delete(ctx, registered.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exists, err = service.Exists(ctx, registered.ID)
	if err != nil || exists {
		t.Fatalf("exists after delete = %t/%v, want false", exists, err)
	}

	if err := service.Delete(ctx, registered.ID); err == nil {
		t.Fatalf("deleting an unknown principal must fail so compensation stays observable")
	}
}
