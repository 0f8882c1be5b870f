// Package members implements the approval workflow over the member store.
package members

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/services/members/authz"
	"github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/members/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	// StatusFilterAll selects members in every approval status.
	StatusFilterAll = "ALL"
)

var (
	// ErrServiceNotConfigured indicates the members service is missing wiring.
	ErrServiceNotConfigured = errors.New("members service is not configured")
	// ErrEmptyRejectReason indicates a rejection without an operator reason.
	ErrEmptyRejectReason = apperrors.New(apperrors.CodeMemberRejectReasonEmpty, "rejection reason is required")
	// ErrMemberIDRequired indicates a missing member identifier.
	ErrMemberIDRequired = apperrors.New(apperrors.CodeMemberIDRequired, "member id is required")
	// ErrMemberNotFound indicates no member matched the identifier.
	ErrMemberNotFound = apperrors.New(apperrors.CodeNotFound, "member not found")
)

// DecisionNotifier receives committed approval decisions for delivery.
//
// Implementations must not block the caller; delivery failure is reported on
// the notification path and never unwinds the committed transition.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, member domain.Member, action domain.Action, reason string)
}

// Service owns the approval state machine and the admin read surface.
type Service struct {
	store    storage.Store
	gate     *authz.Gate
	notifier DecisionNotifier
	clock    func() time.Time
}

// NewService builds the approval workflow service.
//
// The notifier is optional; a nil notifier commits transitions silently.
func NewService(store storage.Store, gate *authz.Gate, notifier DecisionNotifier, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		gate:     gate,
		notifier: notifier,
		clock:    clock,
	}
}

// Approve transitions one member to APPROVED.
//
// Legal from any prior state as an idempotent corrective action; see the
// transition table in the domain package.
func (s *Service) Approve(ctx context.Context, actorMemberID, memberID string) error {
	return s.applyDecision(ctx, actorMemberID, memberID, domain.ActionApprove, "")
}

// Reject transitions one member to REJECTED with an operator reason.
//
// An empty reason fails validation before any store write.
func (s *Service) Reject(ctx context.Context, actorMemberID, memberID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyRejectReason
	}
	return s.applyDecision(ctx, actorMemberID, memberID, domain.ActionReject, reason)
}

// ResetToPending returns one member to PENDING for administrative recovery.
func (s *Service) ResetToPending(ctx context.Context, actorMemberID, memberID string) error {
	return s.applyDecision(ctx, actorMemberID, memberID, domain.ActionReset, "")
}

func (s *Service) applyDecision(ctx context.Context, actorMemberID, memberID string, action domain.Action, reason string) error {
	if s == nil || s.store == nil || s.gate == nil {
		return ErrServiceNotConfigured
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrMemberIDRequired
	}
	if err := s.gate.RequireAdmin(ctx, actorMemberID); err != nil {
		return err
	}
	if _, err := domain.TargetStatus(action); err != nil {
		return err
	}

	now := s.clock().UTC()
	var err error
	switch action {
	case domain.ActionApprove:
		err = s.store.ApproveMember(ctx, memberID, now)
	case domain.ActionReject:
		err = s.store.RejectMember(ctx, memberID, reason, now)
	case domain.ActionReset:
		err = s.store.ResetMemberToPending(ctx, memberID, now)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMemberNotFound
		}
		return apperrors.Wrap(apperrors.CodeExternalService, "update member status", err)
	}

	// The transition is committed; notification runs on its own track and its
	// outcome never rolls back the decision.
	if s.notifier != nil && action != domain.ActionReset {
		member, loadErr := s.store.GetMember(ctx, memberID)
		if loadErr != nil {
			log.Printf("members: load member %s for decision notice: %v", memberID, loadErr)
			return nil
		}
		s.notifier.NotifyDecision(ctx, member, action, reason)
	}
	return nil
}

// GetMember resolves one member for the admin surface.
//
// Records violating lifecycle invariants surface loudly as integrity errors.
func (s *Service) GetMember(ctx context.Context, actorMemberID, memberID string) (domain.Member, error) {
	if s == nil || s.store == nil || s.gate == nil {
		return domain.Member{}, ErrServiceNotConfigured
	}
	if err := s.gate.RequireAdmin(ctx, actorMemberID); err != nil {
		return domain.Member{}, err
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return domain.Member{}, ErrMemberIDRequired
	}
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Member{}, ErrMemberNotFound
		}
		return domain.Member{}, apperrors.Wrap(apperrors.CodeExternalService, "get member", err)
	}
	if err := domain.CheckIntegrity(member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// ListInput narrows and pages the admin member listing.
type ListInput struct {
	// Status is ALL or one of the approval statuses; empty means ALL.
	Status string
	Search string
	Page   int
	Limit  int
}

// ListMembers returns one page of members for the admin surface.
func (s *Service) ListMembers(ctx context.Context, actorMemberID string, input ListInput) (storage.MemberPage, error) {
	if s == nil || s.store == nil || s.gate == nil {
		return storage.MemberPage{}, ErrServiceNotConfigured
	}
	if err := s.gate.RequireAdmin(ctx, actorMemberID); err != nil {
		return storage.MemberPage{}, err
	}

	filter := storage.ListFilter{Search: strings.TrimSpace(input.Search)}
	statusValue := strings.ToUpper(strings.TrimSpace(input.Status))
	if statusValue != "" && statusValue != StatusFilterAll {
		status, err := domain.ParseStatus(statusValue)
		if err != nil {
			return storage.MemberPage{}, err
		}
		filter.Status = status
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	result, err := s.store.ListMembers(ctx, filter)
	if err != nil {
		return storage.MemberPage{}, apperrors.Wrap(apperrors.CodeExternalService, "list members", err)
	}
	return result, nil
}

// PendingMembers lists members awaiting an approval decision.
func (s *Service) PendingMembers(ctx context.Context, actorMemberID string) ([]domain.Member, error) {
	page, err := s.ListMembers(ctx, actorMemberID, ListInput{Status: string(domain.StatusPending), Limit: maxListLimit})
	if err != nil {
		return nil, err
	}
	return page.Members, nil
}
