package domain

import (
	"math"
	"time"
)

// coordinateScale matches the 8 fractional digits of the lat/lng columns.
const coordinateScale = 1e8

// RoundCoordinate rounds v to the precision the database stores.
func RoundCoordinate(v float64) float64 {
	return math.Round(v*coordinateScale) / coordinateScale
}

// InitialApprovalStatus is the status every new listing starts in.
// There is no path that creates a listing directly as Approved.
func InitialApprovalStatus() ApprovalStatus {
	return ApprovalPending
}

// LocationChanged reports whether applying patch to stored would move the
// listing, comparing at storage precision.
func LocationChanged(stored Listing, patch ListingPatch) bool {
	if patch.Lat != nil && RoundCoordinate(*patch.Lat) != RoundCoordinate(stored.Lat) {
		return true
	}
	if patch.Lng != nil && RoundCoordinate(*patch.Lng) != RoundCoordinate(stored.Lng) {
		return true
	}
	return false
}

// NextApprovalStatus applies the re-review rule to an existing listing:
// a reviewed listing (Approved or Rejected) whose location changed goes back
// to Pending. transitioned is true only when the status actually changed.
func NextApprovalStatus(current ApprovalStatus, locationChanged bool) (next ApprovalStatus, transitioned bool) {
	if locationChanged && (current == ApprovalApproved || current == ApprovalRejected) {
		return ApprovalPending, true
	}
	return current, false
}

// CanReviewTo reports whether an administrator may set a listing to status.
func CanReviewTo(status ApprovalStatus) bool {
	return status == ApprovalApproved || status == ApprovalRejected
}

// PendingApprovalReason says why a listing entered Pending.
type PendingApprovalReason string

const (
	PendingReasonCreated         PendingApprovalReason = "created"
	PendingReasonLocationChanged PendingApprovalReason = "location_changed"
)

// PendingApprovalEvent is sent to every administrator when a listing enters
// Pending.
type PendingApprovalEvent struct {
	ListingID   int64                 `json:"listing_id"`
	ListingName string                `json:"listing_name"`
	OwnerID     int64                 `json:"owner_id"`
	Reason      PendingApprovalReason `json:"reason"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// NewPendingApprovalEvent builds the event for l.
func NewPendingApprovalEvent(l Listing, reason PendingApprovalReason, at time.Time) PendingApprovalEvent {
	return PendingApprovalEvent{
		ListingID:   l.ID,
		ListingName: l.Name,
		OwnerID:     l.UserID,
		Reason:      reason,
		OccurredAt:  at.UTC(),
	}
}
