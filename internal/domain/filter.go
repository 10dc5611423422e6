package domain

// ListingFilter is the caller-facing search input. Every field is optional;
// Page is 1-indexed and defaults to 1.
type ListingFilter struct {
	OwnerID   *int64
	VisitorID *int64
	Lat       *float64
	Lng       *float64
	Page      int
}

// Near returns the ranking reference point, or nil unless both coordinates
// were supplied.
func (f ListingFilter) Near() *Point {
	if f.Lat == nil || f.Lng == nil {
		return nil
	}
	return &Point{Lat: *f.Lat, Lng: *f.Lng}
}

// ListingQuery is the resolved, storage-facing form of a search. The repo
// composes one SQL statement from it without consulting the caller again.
type ListingQuery struct {
	Visibility Visibility
	OwnerID    *int64
	VisitorID  *int64
	Near       *Point
	Pagination PaginationParams
}

// NewListingQuery resolves filter for caller: visibility is decided once and
// the page size is fixed.
func NewListingQuery(caller Identity, filter ListingFilter) ListingQuery {
	page := filter.Page
	return ListingQuery{
		Visibility: ResolveVisibility(caller, filter.OwnerID),
		OwnerID:    filter.OwnerID,
		VisitorID:  filter.VisitorID,
		Near:       filter.Near(),
		Pagination: NewPaginationParams(&page, nil),
	}
}
