package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// TagRepo defines the persistence operations for Tags and the listings_tags join table.
type TagRepo interface {
	// Upsert inserts a tag by name, or returns the existing tag with that name.
	Upsert(ctx context.Context, name string) (domain.Tag, error)

	// List returns all tags ordered by id.
	List(ctx context.Context) ([]domain.Tag, error)

	// ExistingIDs returns the subset of ids that reference a tag.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)

	// AttachToListing links tags to a listing in the given order.
	// Idempotent: already linked tags keep their original position.
	AttachToListing(ctx context.Context, listingID int64, tagIDs []int64) error

	// SyncListing makes the listing's tag set exactly tagIDs: links not in
	// tagIDs are removed, missing ones are attached in order.
	SyncListing(ctx context.Context, listingID int64, tagIDs []int64) error

	// ListByListings returns the tags of every listing in ids, keyed by
	// listing id, each in attach order.
	ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Tag, error)
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

// Upsert inserts a tag or returns the existing row on name conflict.
// DO UPDATE SET makes RETURNING fire on conflict; DO NOTHING would return
// no row.
func (r *pgTagRepo) Upsert(ctx context.Context, name string) (domain.Tag, error) {
	const q = `
		INSERT INTO tags (name)
		VALUES (@name)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`

	result, err := scanTag(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgTagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	const q = `SELECT id, name FROM tags ORDER BY id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.List: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TagRepo.List: scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TagRepo.List: rows: %w", err)
	}
	return tags, nil
}

func (r *pgTagRepo) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	const q = `SELECT id FROM tags WHERE id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": nonNilIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ExistingIDs: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ExistingIDs: rows: %w", err)
	}
	return found, nil
}

// AttachToListing queues one insert per tag in a single batch round trip.
// listings_tags.id is a sequence, so queue order is the attach order.
func (r *pgTagRepo) AttachToListing(ctx context.Context, listingID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	const q = `
		INSERT INTO listings_tags (listing_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (listing_id, tag_id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, tagID := range tagIDs {
		batch.Queue(q, listingID, tagID)
	}

	br := r.db.SendBatch(ctx, batch)
	for range tagIDs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("repo.TagRepo.AttachToListing: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("repo.TagRepo.AttachToListing: close batch: %w", err)
	}
	return nil
}

func (r *pgTagRepo) SyncListing(ctx context.Context, listingID int64, tagIDs []int64) error {
	const q = `
		DELETE FROM listings_tags
		WHERE listing_id = @listing_id
		  AND NOT (tag_id = ANY(@tag_ids))`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"listing_id": listingID, "tag_ids": nonNilIDs(tagIDs)}); err != nil {
		return fmt.Errorf("repo.TagRepo.SyncListing: %w", err)
	}
	if err := r.AttachToListing(ctx, listingID, tagIDs); err != nil {
		return fmt.Errorf("repo.TagRepo.SyncListing: %w", err)
	}
	return nil
}

func (r *pgTagRepo) ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Tag, error) {
	const q = `
		SELECT lt.listing_id, t.id, t.name
		FROM listings_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.listing_id = ANY(@ids)
		ORDER BY lt.listing_id, lt.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": nonNilIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ListByListings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Tag, len(ids))
	for rows.Next() {
		var (
			listingID int64
			tag       domain.Tag
		)
		if err := rows.Scan(&listingID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("repo.TagRepo.ListByListings: scan: %w", err)
		}
		out[listingID] = append(out[listingID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ListByListings: rows: %w", err)
	}
	return out, nil
}

// scanTag maps a single database row into a domain.Tag.
func scanTag(s scanner) (domain.Tag, error) {
	var t domain.Tag
	if err := s.Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	return t, nil
}
