// Package inbox delivers notices to a member's stored inbox.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harlowe/wholesail/internal/platform/id"
	"github.com/harlowe/wholesail/internal/services/notifier/domain"
	"github.com/harlowe/wholesail/internal/services/notifier/storage"
)

// Channel writes notices into the inbox store.
type Channel struct {
	store storage.Store
	clock func() time.Time
	newID func() (string, error)
}

// NewChannel builds an inbox channel with production defaults.
func NewChannel(store storage.Store) *Channel {
	return &Channel{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
}

// NewChannelForTest builds an inbox channel with injectable determinism.
func NewChannelForTest(store storage.Store, clock func() time.Time, newID func() (string, error)) *Channel {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Channel{store: store, clock: clock, newID: newID}
}

// Deliver stores the notice. Redelivery of a notice that already carries an
// ID is treated as success so retries stay idempotent.
func (c *Channel) Deliver(ctx context.Context, notice domain.Notice) error {
	if c == nil || c.store == nil {
		return errors.New("inbox channel is not configured")
	}
	if notice.ID == "" {
		noticeID, err := c.newID()
		if err != nil {
			return fmt.Errorf("generate notice id: %w", err)
		}
		notice.ID = noticeID
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = c.clock().UTC()
	}

	if err := c.store.PutNotice(ctx, notice); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return err
	}
	return nil
}
