// Package domain holds member records and the approval lifecycle rules.
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/id"
)

var (
	// ErrEmptyUsername indicates a missing username.
	ErrEmptyUsername = apperrors.New(apperrors.CodeMemberUsernameEmpty, "username is required")
	// ErrInvalidUsername indicates a username that does not match the required format.
	ErrInvalidUsername = apperrors.New(apperrors.CodeMemberUsernameInvalid, "username must be 3-32 lowercase alphanumeric, dot, dash, or underscore characters")
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = apperrors.New(apperrors.CodeMemberEmailEmpty, "email is required")
	// ErrInvalidEmail indicates an email address that does not parse.
	ErrInvalidEmail = apperrors.New(apperrors.CodeMemberEmailInvalid, "email address is not valid")
	// ErrInvalidTier indicates a tier outside the known business tiers.
	ErrInvalidTier = apperrors.New(apperrors.CodeMemberTierInvalid, "tier must be WHOLESALE or RETAIL")

	usernamePattern = regexp.MustCompile(`^[a-z0-9_.\-]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Role identifies the capability class of one member account.
type Role string

const (
	// RoleStandard is a regular business account.
	RoleStandard Role = "STANDARD"
	// RoleAdmin may operate the approval workflow.
	RoleAdmin Role = "ADMIN"
)

// Tier selects which of the two stored prices a member may see.
type Tier string

const (
	// TierUnspecified marks an unset tier; approved members never carry it.
	TierUnspecified Tier = ""
	// TierWholesale sees wholesale pricing.
	TierWholesale Tier = "WHOLESALE"
	// TierRetail sees retail pricing.
	TierRetail Tier = "RETAIL"
)

// Status is the admission lifecycle state of one member.
type Status string

const (
	// StatusPending is the initial state after signup.
	StatusPending Status = "PENDING"
	// StatusApproved unlocks tier pricing.
	StatusApproved Status = "APPROVED"
	// StatusRejected is user-facing terminal but administratively reversible.
	StatusRejected Status = "REJECTED"
)

// ParseStatus converts a stored or caller-provided status string.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeMemberStatusInvalid, "unknown approval status", map[string]string{"status": value})
}

// ParseTier converts a stored or caller-provided tier string.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToUpper(strings.TrimSpace(value))) {
	case TierWholesale:
		return TierWholesale, nil
	case TierRetail:
		return TierRetail, nil
	case TierUnspecified:
		return TierUnspecified, nil
	}
	return "", ErrInvalidTier
}

// Member is one durable business account and its admission state.
type Member struct {
	ID             string
	Username       string
	Email          string
	Role           Role
	Tier           Tier
	Status         Status
	ApprovedAt     *time.Time
	RejectedReason string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMemberInput describes the metadata needed to create a member record.
type NewMemberInput struct {
	ID       string
	Username string
	Email    string
	Tier     Tier
	Role     Role
}

// NormalizeNewMemberInput trims and normalizes input before validation.
func NormalizeNewMemberInput(input NewMemberInput) (NewMemberInput, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	if input.Username == "" {
		return NewMemberInput{}, ErrEmptyUsername
	}
	if !usernamePattern.MatchString(input.Username) {
		return NewMemberInput{}, ErrInvalidUsername
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return NewMemberInput{}, ErrEmptyEmail
	}
	if !emailPattern.MatchString(input.Email) {
		return NewMemberInput{}, ErrInvalidEmail
	}
	tier, err := ParseTier(string(input.Tier))
	if err != nil {
		return NewMemberInput{}, err
	}
	if tier == TierUnspecified {
		return NewMemberInput{}, ErrInvalidTier
	}
	input.Tier = tier
	if input.Role == "" {
		input.Role = RoleStandard
	}
	return input, nil
}

// NewMember creates a member record in the PENDING state.
//
// Signup is the only producer of member records; every later status change
// goes through the approval state machine, never through re-creation.
func NewMember(input NewMemberInput, now func() time.Time, idGenerator func() (string, error)) (Member, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeNewMemberInput(input)
	if err != nil {
		return Member{}, err
	}

	memberID := strings.TrimSpace(normalized.ID)
	if memberID == "" {
		memberID, err = idGenerator()
		if err != nil {
			return Member{}, fmt.Errorf("generate member id: %w", err)
		}
	}

	createdAt := now().UTC()
	return Member{
		ID:        memberID,
		Username:  normalized.Username,
		Email:     normalized.Email,
		Role:      normalized.Role,
		Tier:      normalized.Tier,
		Status:    StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// CheckIntegrity verifies the stored record against the lifecycle invariants.
//
// Violations mean the store was mutated outside the state machine; they are
// surfaced loudly instead of silently patched.
func CheckIntegrity(m Member) error {
	switch m.Status {
	case StatusPending:
		if m.ApprovedAt != nil {
			return integrityError(m.ID, "pending member has approved_at set")
		}
	case StatusApproved:
		if m.ApprovedAt == nil {
			return integrityError(m.ID, "approved member is missing approved_at")
		}
		if strings.TrimSpace(m.RejectedReason) != "" {
			return integrityError(m.ID, "approved member carries a rejection reason")
		}
		if m.Tier == TierUnspecified {
			return integrityError(m.ID, "approved member is missing a tier")
		}
	case StatusRejected:
		if strings.TrimSpace(m.RejectedReason) == "" {
			return integrityError(m.ID, "rejected member is missing a rejection reason")
		}
	default:
		return integrityError(m.ID, "unknown approval status")
	}
	return nil
}

func integrityError(memberID, message string) error {
	return apperrors.WithMetadata(apperrors.CodeMemberIntegrity, message, map[string]string{"member_id": memberID})
}
