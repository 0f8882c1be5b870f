package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harlowe/wholesail/internal/platform/id"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 250 * time.Millisecond
	defaultBatchWidth  = 8
)

// Channel delivers one notice to a concrete destination.
type Channel interface {
	Deliver(ctx context.Context, notice Notice) error
}

// Dispatcher sends notices through a channel with retry and batch support.
type Dispatcher struct {
	channel     Channel
	maxAttempts int
	baseDelay   time.Duration
	batchWidth  int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewDispatcher builds a dispatcher with production retry defaults.
func NewDispatcher(channel Channel) *Dispatcher {
	return &Dispatcher{
		channel:     channel,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		batchWidth:  defaultBatchWidth,
		sleep:       sleepContext,
	}
}

// NewDispatcherForTest builds a dispatcher with an injectable sleep so retry
// timing is observable without waiting.
func NewDispatcherForTest(channel Channel, maxAttempts int, baseDelay time.Duration, sleep func(ctx context.Context, d time.Duration) error) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return &Dispatcher{
		channel:     channel,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		batchWidth:  defaultBatchWidth,
		sleep:       sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withID assigns a notice ID when the caller left it empty. The ID stays
// stable across attempts so durable channels can dedupe redelivery.
func withID(notice Notice) (Notice, error) {
	if notice.ID != "" {
		return notice, nil
	}
	noticeID, err := id.NewID()
	if err != nil {
		return Notice{}, fmt.Errorf("assign notice id: %w", err)
	}
	notice.ID = noticeID
	return notice, nil
}

// Send delivers one notice with a single attempt.
func (d *Dispatcher) Send(ctx context.Context, notice Notice) error {
	if d == nil || d.channel == nil {
		return errors.New("dispatcher is not configured")
	}
	normalized, err := Normalize(notice)
	if err != nil {
		return err
	}
	if normalized, err = withID(normalized); err != nil {
		return err
	}
	return d.channel.Deliver(ctx, normalized)
}

// SendWithRetry delivers one notice, retrying failed attempts with a linearly
// growing delay (baseDelay, 2*baseDelay, ...). The last attempt's error is
// returned when every attempt fails.
func (d *Dispatcher) SendWithRetry(ctx context.Context, notice Notice) error {
	if d == nil || d.channel == nil {
		return errors.New("dispatcher is not configured")
	}
	normalized, err := Normalize(notice)
	if err != nil {
		return err
	}
	if normalized, err = withID(normalized); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		lastErr = d.channel.Deliver(ctx, normalized)
		if lastErr == nil {
			return nil
		}
		if attempt == d.maxAttempts {
			break
		}
		if err := d.sleep(ctx, d.baseDelay*time.Duration(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// SendBatch delivers notices concurrently and reports per-notice outcomes.
//
// Every notice is attempted regardless of sibling failures; results are
// addressed by input index, not completion order.
func (d *Dispatcher) SendBatch(ctx context.Context, notices []Notice) []Result {
	results := make([]Result, len(notices))
	if len(notices) == 0 {
		return results
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.batchWidth)
	for i := range notices {
		results[i].Index = i
		group.Go(func() error {
			results[i].Err = d.SendWithRetry(groupCtx, notices[i])
			// Always nil so one failure never cancels siblings.
			return nil
		})
	}
	_ = group.Wait()
	return results
}
