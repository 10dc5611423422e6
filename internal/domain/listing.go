// Package domain contains the core data types and business rules for the
// office listings API. It has no dependencies on the storage or HTTP layers
// and is imported by every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"time"
)

// ApprovalStatus is the moderation state of a listing.
// Numeric values are persisted as-is in listings.approval_status.
type ApprovalStatus int16

const (
	ApprovalApproved ApprovalStatus = 1
	ApprovalPending  ApprovalStatus = 2
	ApprovalRejected ApprovalStatus = 3
)

// String returns the lowercase name used in API responses.
func (s ApprovalStatus) String() string {
	switch s {
	case ApprovalApproved:
		return "approved"
	case ApprovalPending:
		return "pending"
	case ApprovalRejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown(%d)", int16(s))
	}
}

// ParseApprovalStatus maps an API name back to its ApprovalStatus.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch s {
	case "approved":
		return ApprovalApproved, nil
	case "pending":
		return ApprovalPending, nil
	case "rejected":
		return ApprovalRejected, nil
	}
	return 0, fmt.Errorf("%w: unknown approval status %q", ErrValidation, s)
}

// Listing is an office space published by a host.
//
// Lat and Lng are stored as NUMERIC(11,8); values are rounded to 8 fractional
// digits before they are compared or written (see RoundCoordinate).
// DeletedAt is the soft-delete tombstone: deleted listings remain in the
// table for audit but are invisible to every read path.
type Listing struct {
	ID              int64
	UserID          int64
	Name            string
	Description     string
	AddressLine1    string
	Lat             float64
	Lng             float64
	PricePerDay     int
	MonthlyDiscount int
	Hidden          bool
	ApprovalStatus  ApprovalStatus
	FeaturedImageID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time

	// Read-model fields, populated by the search and show paths only.
	Owner             *User
	Tags              []Tag
	Images            []Image
	ReservationsCount int
}

// Deleted reports whether the listing carries a soft-delete tombstone.
func (l Listing) Deleted() bool {
	return l.DeletedAt != nil
}

// OwnedBy reports whether the given identity is the listing's host.
func (l Listing) OwnedBy(caller Identity) bool {
	return caller.Authenticated() && l.UserID == caller.UserID
}

// ListingPatch is a validated set of listing field changes.
// Nil pointers mean "not sent"; on create every required field is non-nil.
// ReplaceTags distinguishes an explicit empty tag list (detach all) from an
// absent one (leave associations untouched).
type ListingPatch struct {
	Name            *string
	Description     *string
	AddressLine1    *string
	Lat             *float64
	Lng             *float64
	PricePerDay     *int
	MonthlyDiscount *int
	Hidden          *bool
	FeaturedImageID *int64
	TagIDs          []int64
	ReplaceTags     bool
}

// Apply returns a copy of l with every present patch field written over it.
// Coordinates are rounded to storage precision.
func (p ListingPatch) Apply(l Listing) Listing {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.AddressLine1 != nil {
		l.AddressLine1 = *p.AddressLine1
	}
	if p.Lat != nil {
		l.Lat = RoundCoordinate(*p.Lat)
	}
	if p.Lng != nil {
		l.Lng = RoundCoordinate(*p.Lng)
	}
	if p.PricePerDay != nil {
		l.PricePerDay = *p.PricePerDay
	}
	if p.MonthlyDiscount != nil {
		l.MonthlyDiscount = *p.MonthlyDiscount
	}
	if p.Hidden != nil {
		l.Hidden = *p.Hidden
	}
	if p.FeaturedImageID != nil {
		id := *p.FeaturedImageID
		l.FeaturedImageID = &id
	}
	return l
}

// User is the subset of an account the listings core needs: the owner
// summary shown in projections and the admin flag used for moderation.
type User struct {
	ID      int64
	Name    string
	Email   string
	IsAdmin bool
}
