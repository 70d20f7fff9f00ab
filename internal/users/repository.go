package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// Repository reads users and accumulates their recorded sales.
type Repository interface {
	Get(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// IncrementTotalSell adds amount to the user's cumulative recorded
	// sales as a single atomic SQL increment.
	IncrementTotalSell(ctx context.Context, id int64, amount float64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed user store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(ctx, `
		SELECT id, full_name, email, password_hash, role, total_sell, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *pgRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `
		SELECT id, full_name, email, password_hash, role, total_sell, is_active, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
}

func (r *pgRepository) IncrementTotalSell(ctx context.Context, id int64, amount float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET total_sell = total_sell + $2, updated_at = NOW()
		WHERE id = $1
	`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *pgRepository) scanOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.TotalSell, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
