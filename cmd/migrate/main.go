// Package main runs the embedded database migrations.
//
// Usage:
//
//	migrate [up|down|status]
//
// DATABASE_URL is read from the environment (or a .env file).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/office-listings/backend/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(context.Background(), command); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("required environment variables not set: DATABASE_URL")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			slog.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
		}
		slog.Info("database is up to date", "applied", len(results))
	case "down":
		r, err := provider.Down(ctx)
		if err != nil {
			return err
		}
		slog.Info("migration rolled back", "version", r.Source.Version, "path", r.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			slog.Info("migration", "version", s.Source.Version, "path", s.Source.Path, "state", string(s.State), "applied_at", s.AppliedAt)
		}
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
	return nil
}
