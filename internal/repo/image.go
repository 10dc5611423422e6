package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// ImageRepo defines the persistence operations for listing images.
// Single-image operations are scoped by listingID to enforce ownership.
type ImageRepo interface {
	// Create inserts an image row for a file the storage backend already holds.
	Create(ctx context.Context, img domain.Image) (domain.Image, error)

	// GetByID retrieves an image scoped to its listing.
	// Returns domain.ErrNotFound if the image does not belong to that listing.
	GetByID(ctx context.Context, listingID, imageID int64) (domain.Image, error)

	// CountByListing returns how many images the listing currently has.
	CountByListing(ctx context.Context, listingID int64) (int, error)

	// Delete removes the image row. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, listingID, imageID int64) error

	// ListByListings returns the images of every listing in ids, keyed by listing id.
	ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Image, error)
}

// pgImageRepo is the Postgres implementation of ImageRepo.
type pgImageRepo struct {
	db db
}

// NewImageRepo constructs an ImageRepo backed by the provided db connection.
func NewImageRepo(db db) ImageRepo {
	return &pgImageRepo{db: db}
}

func (r *pgImageRepo) Create(ctx context.Context, img domain.Image) (domain.Image, error) {
	const q = `
		INSERT INTO images (listing_id, path)
		VALUES (@listing_id, @path)
		RETURNING id, listing_id, path, created_at`

	result, err := scanImage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"listing_id": img.ListingID, "path": img.Path}))
	if err != nil {
		return domain.Image{}, fmt.Errorf("repo.ImageRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgImageRepo) GetByID(ctx context.Context, listingID, imageID int64) (domain.Image, error) {
	const q = `
		SELECT id, listing_id, path, created_at
		FROM images
		WHERE id = @id AND listing_id = @listing_id`

	result, err := scanImage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": imageID, "listing_id": listingID}))
	if err != nil {
		return domain.Image{}, fmt.Errorf("repo.ImageRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgImageRepo) CountByListing(ctx context.Context, listingID int64) (int, error) {
	const q = `SELECT count(*) FROM images WHERE listing_id = @listing_id`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"listing_id": listingID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ImageRepo.CountByListing: %w", err)
	}
	return int(n), nil
}

func (r *pgImageRepo) Delete(ctx context.Context, listingID, imageID int64) error {
	const q = `DELETE FROM images WHERE id = @id AND listing_id = @listing_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": imageID, "listing_id": listingID})
	if err != nil {
		return fmt.Errorf("repo.ImageRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ImageRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgImageRepo) ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Image, error) {
	const q = `
		SELECT id, listing_id, path, created_at
		FROM images
		WHERE listing_id = ANY(@ids)
		ORDER BY listing_id, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": nonNilIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.ImageRepo.ListByListings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Image, len(ids))
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ImageRepo.ListByListings: scan: %w", err)
		}
		out[img.ListingID] = append(out[img.ListingID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ImageRepo.ListByListings: rows: %w", err)
	}
	return out, nil
}

// scanImage maps a single database row into a domain.Image.
func scanImage(s scanner) (domain.Image, error) {
	var img domain.Image
	if err := s.Scan(&img.ID, &img.ListingID, &img.Path, &img.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Image{}, domain.ErrNotFound
		}
		return domain.Image{}, err
	}
	return img, nil
}
