package repo

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// distanceExpr is the squared equirectangular distance used by
// domain.DistanceSquared, written against the listings alias l.
const distanceExpr = `power(69.1 * (l.lat::float8 - @ref_lat::float8), 2)
	+ power(69.1 * (@ref_lng::float8 - l.lng::float8) * cos(l.lat::float8 / 57.3), 2)`

// listingPredicate contributes one WHERE clause for q, or reports ok=false
// when the filter it covers is absent. Predicates register their own
// arguments.
type listingPredicate func(q domain.ListingQuery, args pgx.NamedArgs) (clause string, ok bool)

// listingPredicates is applied in full to every search; each entry decides
// for itself whether it contributes.
var listingPredicates = []listingPredicate{
	notDeleted,
	visibleIn,
	ownedBy,
	reservedBy,
}

func notDeleted(domain.ListingQuery, pgx.NamedArgs) (string, bool) {
	return "l.deleted_at IS NULL", true
}

func visibleIn(q domain.ListingQuery, args pgx.NamedArgs) (string, bool) {
	if q.Visibility == domain.VisibilityOwner {
		return "", false
	}
	args["approved"] = int16(domain.ApprovalApproved)
	return "l.hidden = false AND l.approval_status = @approved", true
}

func ownedBy(q domain.ListingQuery, args pgx.NamedArgs) (string, bool) {
	if q.OwnerID == nil {
		return "", false
	}
	args["owner_id"] = *q.OwnerID
	return "l.user_id = @owner_id", true
}

func reservedBy(q domain.ListingQuery, args pgx.NamedArgs) (string, bool) {
	if q.VisitorID == nil {
		return "", false
	}
	args["visitor_id"] = *q.VisitorID
	return "EXISTS (SELECT 1 FROM reservations r WHERE r.listing_id = l.id AND r.user_id = @visitor_id)", true
}

// listingSearch is the composed statement for one ListingQuery.
type listingSearch struct {
	where   string
	orderBy string
	args    pgx.NamedArgs
}

// buildListingSearch composes WHERE, ORDER BY and arguments for q.
func buildListingSearch(q domain.ListingQuery) listingSearch {
	args := pgx.NamedArgs{}

	var clauses []string
	for _, p := range listingPredicates {
		if clause, ok := p(q, args); ok {
			clauses = append(clauses, clause)
		}
	}

	orderBy := "l.id"
	if q.Near != nil {
		args["ref_lat"] = q.Near.Lat
		args["ref_lng"] = q.Near.Lng
		orderBy = distanceExpr + ", l.id"
	}

	args["limit"] = q.Pagination.Limit
	args["offset"] = q.Pagination.Offset()

	return listingSearch{
		where:   strings.Join(clauses, "\n\t\t  AND "),
		orderBy: orderBy,
		args:    args,
	}
}

func (s listingSearch) selectSQL() string {
	return `SELECT ` + listingColumns + `
		FROM listings l
		WHERE ` + s.where + `
		ORDER BY ` + s.orderBy + `
		LIMIT @limit OFFSET @offset`
}

func (s listingSearch) countSQL() string {
	return `SELECT count(*) FROM listings l WHERE ` + s.where
}
