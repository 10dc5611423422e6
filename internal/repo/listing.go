package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// ListingRepo defines the persistence operations for Listings.
// Every read excludes soft-deleted rows.
type ListingRepo interface {
	// Create inserts a new listing and returns the persisted record.
	Create(ctx context.Context, l domain.Listing) (domain.Listing, error)

	// GetByID retrieves a live listing by id.
	// Returns domain.ErrNotFound if it does not exist or is soft-deleted.
	GetByID(ctx context.Context, id int64) (domain.Listing, error)

	// Update overwrites the mutable fields of a listing. approval_status is
	// written (as Pending) only when resetApproval is true; otherwise the stored
	// status is kept, so a concurrent review decision is never overwritten by a
	// cosmetic edit.
	Update(ctx context.Context, l domain.Listing, resetApproval bool) (domain.Listing, error)

	// SetApprovalStatus records an administrative review decision.
	SetApprovalStatus(ctx context.Context, id int64, status domain.ApprovalStatus) (domain.Listing, error)

	// SoftDelete sets the tombstone. Returns domain.ErrNotFound if the
	// listing does not exist or is already deleted.
	SoftDelete(ctx context.Context, id int64) error

	// HasActiveReservations reports whether any Active reservation points at the listing.
	HasActiveReservations(ctx context.Context, id int64) (bool, error)

	// Search returns one page of listings matching q, in rank order.
	Search(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error)

	// Count returns how many listings match q, ignoring pagination.
	Count(ctx context.Context, q domain.ListingQuery) (int64, error)

	// ActiveReservationCounts returns the number of Active reservations per
	// listing id. Listings without any are absent from the map.
	ActiveReservationCounts(ctx context.Context, ids []int64) (map[int64]int, error)
}

// pgListingRepo is the Postgres implementation of ListingRepo.
type pgListingRepo struct {
	db db
}

// NewListingRepo constructs a ListingRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewListingRepo(db db) ListingRepo {
	return &pgListingRepo{db: db}
}

const listingColumns = `
	l.id, l.user_id, l.name, l.description, l.address_line_1, l.lat, l.lng,
	l.price_per_day, l.monthly_discount, l.hidden, l.approval_status,
	l.featured_image_id, l.created_at, l.updated_at, l.deleted_at`

// Create inserts a new listing row and returns the full persisted record.
func (r *pgListingRepo) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	const q = `
		INSERT INTO listings AS l (user_id, name, description, address_line_1, lat, lng,
		                           price_per_day, monthly_discount, hidden, approval_status)
		VALUES (@user_id, @name, @description, @address_line_1, @lat, @lng,
		        @price_per_day, @monthly_discount, @hidden, @approval_status)
		RETURNING ` + listingColumns

	args := pgx.NamedArgs{
		"user_id":          l.UserID,
		"name":             l.Name,
		"description":      l.Description,
		"address_line_1":   l.AddressLine1,
		"lat":              domain.RoundCoordinate(l.Lat),
		"lng":              domain.RoundCoordinate(l.Lng),
		"price_per_day":    l.PricePerDay,
		"monthly_discount": l.MonthlyDiscount,
		"hidden":           l.Hidden,
		"approval_status":  int16(l.ApprovalStatus),
	}

	result, err := scanListing(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a live listing by primary key.
func (r *pgListingRepo) GetByID(ctx context.Context, id int64) (domain.Listing, error) {
	q := `SELECT ` + listingColumns + `
		FROM listings l
		WHERE l.id = @id AND l.deleted_at IS NULL`

	result, err := scanListing(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.GetByID: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable fields of a listing and returns the updated record.
func (r *pgListingRepo) Update(ctx context.Context, l domain.Listing, resetApproval bool) (domain.Listing, error) {
	const q = `
		UPDATE listings AS l
		SET name              = @name,
		    description       = @description,
		    address_line_1    = @address_line_1,
		    lat               = @lat,
		    lng               = @lng,
		    price_per_day     = @price_per_day,
		    monthly_discount  = @monthly_discount,
		    hidden            = @hidden,
		    featured_image_id = @featured_image_id,
		    approval_status   = CASE WHEN @reset_approval::boolean THEN @pending::smallint ELSE l.approval_status END,
		    updated_at        = now()
		WHERE l.id = @id AND l.deleted_at IS NULL
		RETURNING ` + listingColumns

	args := pgx.NamedArgs{
		"id":                l.ID,
		"name":              l.Name,
		"description":       l.Description,
		"address_line_1":    l.AddressLine1,
		"lat":               domain.RoundCoordinate(l.Lat),
		"lng":               domain.RoundCoordinate(l.Lng),
		"price_per_day":     l.PricePerDay,
		"monthly_discount":  l.MonthlyDiscount,
		"hidden":            l.Hidden,
		"featured_image_id": l.FeaturedImageID, // nil becomes NULL
		"reset_approval":    resetApproval,
		"pending":           int16(domain.ApprovalPending),
	}

	result, err := scanListing(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.Update: %w", err)
	}
	return result, nil
}

// SetApprovalStatus writes a review decision on a live listing.
func (r *pgListingRepo) SetApprovalStatus(ctx context.Context, id int64, status domain.ApprovalStatus) (domain.Listing, error) {
	const q = `
		UPDATE listings AS l
		SET approval_status = @status, updated_at = now()
		WHERE l.id = @id AND l.deleted_at IS NULL
		RETURNING ` + listingColumns

	result, err := scanListing(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "status": int16(status)}))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.SetApprovalStatus: %w", err)
	}
	return result, nil
}

// SoftDelete marks a live listing as deleted without removing the row.
func (r *pgListingRepo) SoftDelete(ctx context.Context, id int64) error {
	const q = `UPDATE listings SET deleted_at = now() WHERE id = @id AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ListingRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ListingRepo.SoftDelete: %w", domain.ErrNotFound)
	}
	return nil
}

// HasActiveReservations uses EXISTS, not a count.
func (r *pgListingRepo) HasActiveReservations(ctx context.Context, id int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE listing_id = @id AND status = @active
		)`

	var exists bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "active": int16(domain.ReservationActive)}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.ListingRepo.HasActiveReservations: %w", err)
	}
	return exists, nil
}

// Search runs the single composed search statement for q.
func (r *pgListingRepo) Search(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error) {
	stmt := buildListingSearch(q)

	rows, err := r.db.Query(ctx, stmt.selectSQL(), stmt.args)
	if err != nil {
		return nil, fmt.Errorf("repo.ListingRepo.Search: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListingRepo.Search: scan: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListingRepo.Search: rows: %w", err)
	}
	return listings, nil
}

// Count shares its WHERE clause with Search.
func (r *pgListingRepo) Count(ctx context.Context, q domain.ListingQuery) (int64, error) {
	stmt := buildListingSearch(q)

	var total int64
	if err := r.db.QueryRow(ctx, stmt.countSQL(), stmt.args).Scan(&total); err != nil {
		return 0, fmt.Errorf("repo.ListingRepo.Count: %w", err)
	}
	return total, nil
}

// ActiveReservationCounts aggregates Active reservations for all ids in one query.
func (r *pgListingRepo) ActiveReservationCounts(ctx context.Context, ids []int64) (map[int64]int, error) {
	const q = `
		SELECT listing_id, count(*)
		FROM reservations
		WHERE listing_id = ANY(@ids) AND status = @active
		GROUP BY listing_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"ids":    nonNilIDs(ids),
		"active": int16(domain.ReservationActive),
	})
	if err != nil {
		return nil, fmt.Errorf("repo.ListingRepo.ActiveReservationCounts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int, len(ids))
	for rows.Next() {
		var (
			listingID int64
			n         int64
		)
		if err := rows.Scan(&listingID, &n); err != nil {
			return nil, fmt.Errorf("repo.ListingRepo.ActiveReservationCounts: scan: %w", err)
		}
		counts[listingID] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListingRepo.ActiveReservationCounts: rows: %w", err)
	}
	return counts, nil
}

// scanListing maps a single database row into a domain.Listing.
// Column order must match listingColumns.
func scanListing(s scanner) (domain.Listing, error) {
	var (
		l      domain.Listing
		status int16
	)
	err := s.Scan(
		&l.ID, &l.UserID, &l.Name, &l.Description, &l.AddressLine1, &l.Lat, &l.Lng,
		&l.PricePerDay, &l.MonthlyDiscount, &l.Hidden, &status,
		&l.FeaturedImageID, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}
	l.ApprovalStatus = domain.ApprovalStatus(status)
	return l, nil
}
