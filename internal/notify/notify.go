// Package notify delivers pending-approval events to administrators.
// Each channel satisfies service.AdminNotifier; Fanout combines them.
package notify

import (
	"context"
	"errors"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// Notifier is a single delivery channel.
type Notifier interface {
	NotifyPendingApproval(ctx context.Context, event domain.PendingApprovalEvent) error
}

// Fanout delivers every event through each channel in order. A failing
// channel does not stop the others; all errors are joined.
type Fanout []Notifier

// NotifyPendingApproval implements service.AdminNotifier.
func (f Fanout) NotifyPendingApproval(ctx context.Context, event domain.PendingApprovalEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyPendingApproval(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
