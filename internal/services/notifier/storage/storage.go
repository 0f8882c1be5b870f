// Package storage defines the persistence boundary for the notification inbox.
package storage

import (
	"context"
	"errors"

	"github.com/harlowe/wholesail/internal/services/notifier/domain"
)

var (
	// ErrNotFound indicates no notice row matched the lookup key.
	ErrNotFound = errors.New("notice not found")
	// ErrDuplicate indicates a notice with the same ID was already stored.
	ErrDuplicate = errors.New("notice already stored")
)

// Store is the inbox persistence boundary.
type Store interface {
	PutNotice(ctx context.Context, notice domain.Notice) error
	ListNotices(ctx context.Context, recipientID string, limit int) ([]domain.Notice, error)
}
