// Package principal provides identity principal records and credential rules.
package principal

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
)

const minPasswordLength = 10

var (
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = apperrors.New(apperrors.CodeMemberEmailEmpty, "email is required")
	// ErrInvalidEmail indicates an email address that does not parse.
	ErrInvalidEmail = apperrors.New(apperrors.CodeMemberEmailInvalid, "email address is not valid")
	// ErrPasswordTooShort indicates a password below the minimum length.
	ErrPasswordTooShort = apperrors.New(apperrors.CodeIdentityPasswordTooShort, "password must be at least 10 characters")

	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Principal is one authentication identity record.
type Principal struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials carries untrusted signup or login input.
type Credentials struct {
	Email    string
	Password string
}

// NormalizeCredentials trims and validates credentials before hashing.
func NormalizeCredentials(input Credentials) (Credentials, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return Credentials{}, ErrEmptyEmail
	}
	if !emailPattern.MatchString(input.Email) {
		return Credentials{}, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return Credentials{}, ErrPasswordTooShort
	}
	return input, nil
}
