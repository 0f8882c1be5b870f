// Package webhook delivers notices to an external HTTP endpoint.
package webhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/timeouts"
	"github.com/harlowe/wholesail/internal/services/notifier/domain"
)

// Channel posts notices as JSON to a configured webhook URL.
type Channel struct {
	client   *resty.Client
	endpoint string
}

type payload struct {
	NoticeID    string    `json:"notice_id"`
	RecipientID string    `json:"recipient_id"`
	Topic       string    `json:"topic"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewChannel builds a webhook channel for one endpoint.
func NewChannel(endpoint string) (*Channel, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("webhook endpoint is required")
	}
	client := resty.New().
		SetTimeout(timeouts.WebhookRequest).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "wholesail-notifier")
	return &Channel{client: client, endpoint: endpoint}, nil
}

// Deliver posts one notice. Any non-2xx response is a delivery failure.
func (c *Channel) Deliver(ctx context.Context, notice domain.Notice) error {
	if c == nil || c.client == nil {
		return errors.New("webhook channel is not configured")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload{
			NoticeID:    notice.ID,
			RecipientID: notice.RecipientID,
			Topic:       notice.Topic,
			Subject:     notice.Subject,
			Body:        notice.Body,
			CreatedAt:   notice.CreatedAt,
		}).
		Post(c.endpoint)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeNoticeDelivery, "post webhook", err)
	}
	if resp.IsError() {
		return apperrors.New(apperrors.CodeNoticeDelivery, "webhook returned "+resp.Status())
	}
	return nil
}
