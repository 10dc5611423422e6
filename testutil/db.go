// Package testutil holds the Postgres helpers shared by integration tests.
// Every helper skips (or runs the suite without a database) when
// TEST_DATABASE_URL is not set, so unit tests never need Postgres.
package testutil

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/office-listings/backend/migrations"
)

// EnvDSN names the variable holding the test database connection string.
const EnvDSN = "TEST_DATABASE_URL"

// RunWithMigrations is the body of a package's TestMain: it brings the test
// database schema up to date, then runs the tests and returns their exit code.
// Without TEST_DATABASE_URL the tests run as-is and integration tests skip
// themselves.
func RunWithMigrations(m *testing.M) int {
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		return m.Run()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("testutil.RunWithMigrations: open: %v", err)
		return 1
	}
	applied, err := migrations.Up(context.Background(), db)
	_ = db.Close()
	if err != nil {
		log.Printf("testutil.RunWithMigrations: %v", err)
		return 1
	}
	if applied > 0 {
		log.Printf("testutil.RunWithMigrations: applied %d migrations", applied)
	}
	return m.Run()
}

// NewPool opens a pool on the test database, closed when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh pool and rolls it back when the test
// finishes, so each test sees an untouched schema with no cleanup code.
// Nested Begin calls on the returned Tx become savepoints.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a *sql.DB on the test database through the pgx driver, for
// goose, which works on database/sql.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skip(EnvDSN + " not set; skipping integration test")
	}
	return dsn
}
