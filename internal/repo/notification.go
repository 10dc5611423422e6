package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// NotificationRepo stores per-recipient notifications (the database
// delivery channel).
type NotificationRepo interface {
	// InsertMany stores all notifications in one batch round trip.
	InsertMany(ctx context.Context, notifications []domain.Notification) error

	// ListByUser returns a user's notifications, newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
}

// pgNotificationRepo is the Postgres implementation of NotificationRepo.
type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

func (r *pgNotificationRepo) InsertMany(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	const q = `
		INSERT INTO notifications (id, user_id, type, data)
		VALUES ($1, $2, $3, $4::jsonb)`

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(q, pgtype.UUID{Bytes: n.ID, Valid: true}, n.UserID, n.Type, string(n.Data))
	}

	br := r.db.SendBatch(ctx, batch)
	for range notifications {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("repo.NotificationRepo.InsertMany: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("repo.NotificationRepo.InsertMany: close batch: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	const q = `
		SELECT id, user_id, type, data, created_at, read_at
		FROM notifications
		WHERE user_id = @user_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var (
			n  domain.Notification
			id pgtype.UUID
		)
		if err := rows.Scan(&id, &n.UserID, &n.Type, &n.Data, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: scan: %w", err)
		}
		n.ID = id.Bytes
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: rows: %w", err)
	}
	return out, nil
}
