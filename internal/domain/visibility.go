package domain

// Visibility is the per-request filtering mode of a listing query.
// It is resolved once for the whole query, never per row.
type Visibility int

const (
	// VisibilityPublic shows only listings that are not hidden and approved.
	VisibilityPublic Visibility = iota
	// VisibilityOwner shows every listing regardless of hidden flag or
	// moderation status. Only granted when a caller asks for their own listings.
	VisibilityOwner
)

// ResolveVisibility picks the mode for a query scoped to ownerID (nil when
// the query is not owner-scoped).
func ResolveVisibility(caller Identity, ownerID *int64) Visibility {
	if caller.Authenticated() && ownerID != nil && *ownerID == caller.UserID {
		return VisibilityOwner
	}
	return VisibilityPublic
}

// Allows reports whether l passes the mode's filter.
func (v Visibility) Allows(l Listing) bool {
	if v == VisibilityOwner {
		return true
	}
	return !l.Hidden && l.ApprovalStatus == ApprovalApproved
}
