// Package notifier wires decision notifications and the member inbox.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/notifier/domain"
	"github.com/harlowe/wholesail/internal/services/notifier/storage"
)

const tracerName = "github.com/harlowe/wholesail/internal/services/notifier"

// DecisionDispatcher turns admission decisions into notices and delivers
// them off the request path.
type DecisionDispatcher struct {
	dispatcher *domain.Dispatcher
	async      bool
	wg         sync.WaitGroup
}

// NewDecisionDispatcher builds a dispatcher that delivers decision notices
// in the background.
func NewDecisionDispatcher(dispatcher *domain.Dispatcher) *DecisionDispatcher {
	return &DecisionDispatcher{dispatcher: dispatcher, async: true}
}

// NewDecisionDispatcherForTest delivers synchronously so tests can assert
// on delivery without racing a goroutine.
func NewDecisionDispatcherForTest(dispatcher *domain.Dispatcher) *DecisionDispatcher {
	return &DecisionDispatcher{dispatcher: dispatcher, async: false}
}

// NotifyDecision delivers a decision notice. Delivery runs detached from the
// request context and never reports failure to the caller; the admission
// decision is already committed by the time this runs.
func (d *DecisionDispatcher) NotifyDecision(ctx context.Context, member membersdomain.Member, action membersdomain.Action, reason string) {
	if d == nil || d.dispatcher == nil {
		return
	}

	notice, ok := decisionNotice(member, action, reason)
	if !ok {
		return
	}

	deliver := func(ctx context.Context) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "notifier.NotifyDecision", trace.WithAttributes(
			attribute.String("notice.topic", notice.Topic),
			attribute.String("notice.recipient_id", member.ID),
		))
		defer span.End()
		if err := d.dispatcher.SendWithRetry(ctx, notice); err != nil {
			span.RecordError(err)
			log.Printf("decision notice delivery failed member_id=%s topic=%s: %v", member.ID, notice.Topic, err)
		}
	}

	detached := context.WithoutCancel(ctx)
	if !d.async {
		deliver(detached)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		deliver(detached)
	}()
}

// Wait blocks until in-flight deliveries finish. Used at shutdown.
func (d *DecisionDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func decisionNotice(member membersdomain.Member, action membersdomain.Action, reason string) (domain.Notice, bool) {
	switch action {
	case membersdomain.ActionApprove:
		return domain.Notice{
			RecipientID: member.ID,
			Topic:       domain.TopicMemberApproved,
			Subject:     "Your account has been approved",
			Body:        fmt.Sprintf("Welcome, %s. Your account is approved and wholesale pricing is now visible.", member.Username),
		}, true
	case membersdomain.ActionReject:
		body := "Your account application was not approved."
		if reason != "" {
			body = fmt.Sprintf("Your account application was not approved: %s", reason)
		}
		return domain.Notice{
			RecipientID: member.ID,
			Topic:       domain.TopicMemberRejected,
			Subject:     "Your account application was declined",
			Body:        body,
		}, true
	default:
		return domain.Notice{}, false
	}
}

// Service exposes the stored inbox to members.
type Service struct {
	store storage.Store
}

// NewService builds an inbox read service.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Inbox lists a member's notices, newest first.
func (s *Service) Inbox(ctx context.Context, memberID string, limit int) ([]domain.Notice, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("notifier service is not configured")
	}
	return s.store.ListNotices(ctx, memberID, limit)
}
