package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// UserRepo reads the account data the listings core needs.
// Account management itself lives outside this service.
type UserRepo interface {
	// Create inserts a user. Used by seeding and tests.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// GetByID returns domain.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id int64) (domain.User, error)

	// GetByIDs returns the users among ids, keyed by id.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)

	// ListAdmins returns every administrator account.
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (name, email, is_admin)
		VALUES (@name, @email, @is_admin)
		RETURNING id, name, email, is_admin`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": u.Name, "email": u.Email, "is_admin": u.IsAdmin}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `SELECT id, name, email, is_admin FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	const q = `SELECT id, name, email, is_admin FROM users WHERE id = ANY(@ids)`

	users, err := r.list(ctx, q, pgx.NamedArgs{"ids": nonNilIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.GetByIDs: %w", err)
	}
	out := make(map[int64]domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *pgUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT id, name, email, is_admin FROM users WHERE is_admin ORDER BY id`

	users, err := r.list(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.ListAdmins: %w", err)
	}
	return users, nil
}

func (r *pgUserRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
