// Package domain defines notification notices and the dispatch engine.
package domain

import (
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
)

// Topics for member admission decisions.
const (
	TopicMemberApproved = "member.approved"
	TopicMemberRejected = "member.rejected"
)

var (
	// ErrEmptyRecipient indicates a notice without a recipient member.
	ErrEmptyRecipient = apperrors.New(apperrors.CodeNoticeRecipientEmpty, "notice recipient is required")
	// ErrEmptyTopic indicates a notice without a topic.
	ErrEmptyTopic = apperrors.New(apperrors.CodeNoticeTopicEmpty, "notice topic is required")
)

// Notice is one message addressed to a member.
type Notice struct {
	ID          string
	RecipientID string
	Topic       string
	Subject     string
	Body        string
	CreatedAt   time.Time
}

// Normalize trims notice fields and validates the required ones.
func Normalize(notice Notice) (Notice, error) {
	notice.RecipientID = strings.TrimSpace(notice.RecipientID)
	notice.Topic = strings.TrimSpace(notice.Topic)
	notice.Subject = strings.TrimSpace(notice.Subject)
	if notice.RecipientID == "" {
		return Notice{}, ErrEmptyRecipient
	}
	if notice.Topic == "" {
		return Notice{}, ErrEmptyTopic
	}
	return notice, nil
}

// Result reports the outcome of one notice in a batch dispatch.
type Result struct {
	Index int
	Err   error
}
