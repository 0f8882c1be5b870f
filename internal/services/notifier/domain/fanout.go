package domain

import (
	"context"
	"errors"
)

// Fanout delivers each notice to every configured channel.
type Fanout struct {
	channels []Channel
}

// NewFanout combines channels into a single Channel. Nil channels are skipped.
func NewFanout(channels ...Channel) *Fanout {
	kept := make([]Channel, 0, len(channels))
	for _, channel := range channels {
		if channel != nil {
			kept = append(kept, channel)
		}
	}
	return &Fanout{channels: kept}
}

// Deliver sends the notice to every channel and joins the failures.
func (f *Fanout) Deliver(ctx context.Context, notice Notice) error {
	if f == nil || len(f.channels) == 0 {
		return errors.New("no channels configured")
	}
	var errs []error
	for _, channel := range f.channels {
		if err := channel.Deliver(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
