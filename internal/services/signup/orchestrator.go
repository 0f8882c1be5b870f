// Package signup coordinates account creation across identity and members.
package signup

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/timeouts"
	"github.com/harlowe/wholesail/internal/services/identity/principal"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	memberstorage "github.com/harlowe/wholesail/internal/services/members/storage"
)

const tracerName = "github.com/harlowe/wholesail/internal/services/signup"

// IdentityService is the slice of the identity service signup needs.
type IdentityService interface {
	Register(ctx context.Context, input principal.Credentials) (principal.Principal, error)
	Delete(ctx context.Context, principalID string) error
}

// MemberStore is the slice of member persistence signup needs.
type MemberStore interface {
	PutMember(ctx context.Context, member membersdomain.Member) error
}

// Input carries one untrusted signup request.
type Input struct {
	Email    string
	Password string
	Username string
	Tier     string
}

// Orchestrator runs the two-step signup: register an identity, then create
// the pending member record. A failed second step deletes the identity so
// the email can sign up again.
type Orchestrator struct {
	identity IdentityService
	members  MemberStore
	clock    func() time.Time
	tracer   trace.Tracer
}

// NewOrchestrator builds the signup orchestrator.
func NewOrchestrator(identity IdentityService, members MemberStore) *Orchestrator {
	return NewOrchestratorForTest(identity, members, nil)
}

// NewOrchestratorForTest builds an orchestrator with an injectable clock.
func NewOrchestratorForTest(identity IdentityService, members MemberStore, clock func() time.Time) *Orchestrator {
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		identity: identity,
		members:  members,
		clock:    clock,
		tracer:   otel.Tracer(tracerName),
	}
}

// Signup creates an identity and its pending member record.
//
// The member shares the principal's ID, so one lookup key spans both stores.
func (o *Orchestrator) Signup(ctx context.Context, input Input) (membersdomain.Member, error) {
	if o == nil || o.identity == nil || o.members == nil {
		return membersdomain.Member{}, errors.New("signup orchestrator is not configured")
	}

	ctx, span := o.tracer.Start(ctx, "signup.Signup")
	defer span.End()

	tier, err := membersdomain.ParseTier(input.Tier)
	if err != nil {
		return membersdomain.Member{}, err
	}
	memberInput, err := membersdomain.NormalizeNewMemberInput(membersdomain.NewMemberInput{
		Username: input.Username,
		Email:    input.Email,
		Tier:     tier,
		Role:     membersdomain.RoleStandard,
	})
	if err != nil {
		return membersdomain.Member{}, err
	}

	registered, err := o.identity.Register(ctx, principal.Credentials{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return membersdomain.Member{}, err
	}
	span.SetAttributes(attribute.String("principal.id", registered.ID))

	memberInput.ID = registered.ID
	member, err := membersdomain.NewMember(memberInput, o.clock, nil)
	if err != nil {
		o.compensate(ctx, span, registered.ID)
		return membersdomain.Member{}, err
	}
	if err := o.members.PutMember(ctx, member); err != nil {
		o.compensate(ctx, span, registered.ID)
		if errors.Is(err, memberstorage.ErrConflict) {
			return membersdomain.Member{}, apperrors.New(apperrors.CodeConflict, "username or email is already taken")
		}
		return membersdomain.Member{}, apperrors.Wrap(apperrors.CodeExternalService, "put member", err)
	}
	return member, nil
}

// compensate deletes the just-registered identity after a failed member
// write. It runs detached from the request context so a caller hangup
// cannot strand the identity half of an aborted signup.
func (o *Orchestrator) compensate(ctx context.Context, span trace.Span, principalID string) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.StoreRequest)
	defer cancel()

	if err := o.identity.Delete(detached, principalID); err != nil {
		// Orphaned identity: the email is registered but has no member
		// record. Needs operator cleanup before the email can retry.
		log.Printf("ALERT signup compensation failed, orphaned identity principal_id=%s: %v", principalID, err)
		span.AddEvent("signup.orphaned_identity", trace.WithAttributes(
			attribute.String("principal.id", principalID),
			attribute.String("error", err.Error()),
		))
	}
}
