package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// Database stores one notification row per administrator, read later by
// the admin inbox.
type Database struct {
	users         repo.UserRepo
	notifications repo.NotificationRepo
}

// NewDatabase constructs the database channel.
func NewDatabase(users repo.UserRepo, notifications repo.NotificationRepo) *Database {
	return &Database{users: users, notifications: notifications}
}

// NotifyPendingApproval implements service.AdminNotifier.
func (d *Database) NotifyPendingApproval(ctx context.Context, event domain.PendingApprovalEvent) error {
	admins, err := d.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("notify.Database: list admins: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify.Database: encode event: %w", err)
	}

	rows := make([]domain.Notification, len(admins))
	for i, admin := range admins {
		rows[i] = domain.Notification{
			ID:     uuid.New(),
			UserID: admin.ID,
			Type:   domain.NotificationTypePendingApproval,
			Data:   data,
		}
	}
	if err := d.notifications.InsertMany(ctx, rows); err != nil {
		return fmt.Errorf("notify.Database: %w", err)
	}
	return nil
}
