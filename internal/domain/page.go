package domain

import "math"

// MaxPage bounds the page number so that Offset cannot overflow. Any page this
// far out is past the end of every result set and comes back empty.
const MaxPage = math.MaxInt32

// ListingPageSize is the fixed page size of the listing search.
const ListingPageSize = 20

// PaginationParams carries page/limit values from the HTTP layer to the repo layer.
// Page is 1-indexed. Limit is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional HTTP query params.
// Nil pointers fall back to sane defaults (page=1, limit=20).
// The limit is capped at 100 to prevent runaway queries and the page at MaxPage.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: ListingPageSize}
	if page != nil && *page >= 1 {
		p.Page = min(*page, MaxPage)
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 100 {
			p.Limit = 100
		}
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
// It is computed in int64 so it stays positive on 32-bit platforms too.
func (p PaginationParams) Offset() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Page is one page of results plus the total number of matching rows.
// A page past the end has no items; it is not an error.
type Page[T any] struct {
	Items []T
	Page  int
	Limit int
	Total int64
}
