// Package repo contains all database access logic for the office listings API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// conn is a db that can also open transactions. *pgxpool.Pool and pgx.Tx
// (via savepoints) both satisfy it.
type conn interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Listings      ListingRepo
	Images        ImageRepo
	Tags          TagRepo
	Users         UserRepo
	Notifications NotificationRepo
}

// NewRepos binds every repository to db.
func NewRepos(db db) Repos {
	return Repos{
		Listings:      NewListingRepo(db),
		Images:        NewImageRepo(db),
		Tags:          NewTagRepo(db),
		Users:         NewUserRepo(db),
		Notifications: NewNotificationRepo(db),
	}
}

// Store owns the connection pool and hands out repositories, either bound to
// the pool directly or to a transaction.
type Store struct {
	Repos
	conn conn
}

// NewStore constructs a Store. In production pass *pgxpool.Pool; in tests a
// pgx.Tx works too, nested transactions become savepoints.
func NewStore(c conn) *Store {
	return &Store{Repos: NewRepos(c), conn: c}
}

// WithinTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
}

// nonNilIDs returns ids, or an empty slice when ids is nil, so that
// `= ANY(@ids)` receives '{}' instead of NULL.
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
