package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// webhookPayload is the JSON body posted to the admin webhook.
type webhookPayload struct {
	Type string                      `json:"type"`
	Data domain.PendingApprovalEvent `json:"data"`
}

// Webhook posts each event to an HTTP endpoint, e.g. a chat integration.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook constructs a Webhook that posts to url.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "office-listings/1.0")
	return &Webhook{client: client, url: url}
}

// NotifyPendingApproval implements service.AdminNotifier. Any non-2xx
// response is an error.
func (w *Webhook) NotifyPendingApproval(ctx context.Context, event domain.PendingApprovalEvent) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Type: domain.NotificationTypePendingApproval, Data: event}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("notify.Webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify.Webhook: unexpected status %d", resp.StatusCode())
	}
	return nil
}
