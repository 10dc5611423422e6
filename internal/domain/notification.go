package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationTypePendingApproval marks rows created for PendingApprovalEvent.
const NotificationTypePendingApproval = "listing.pending_approval"

// Notification is a stored, per-recipient copy of an event. Data holds the
// JSON-encoded event payload.
type Notification struct {
	ID        uuid.UUID
	UserID    int64
	Type      string
	Data      []byte
	CreatedAt time.Time
	ReadAt    *time.Time
}
