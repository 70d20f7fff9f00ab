// Package products tracks the last-known quoted and vendor prices per
// product title. The records are denormalized hints written by a
// best-effort background job; nothing in the financial core reads them.
package products

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Price sources for the history upsert.
const (
	SourceQuote  = "quote"
	SourceVendor = "vendor"
)

// Repository upserts price-history rows keyed by product title.
type Repository interface {
	UpsertQuotePrice(ctx context.Context, title string, price float64) error
	UpsertVendorPrice(ctx context.Context, title string, price float64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed product price store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) UpsertQuotePrice(ctx context.Context, title string, price float64) error {
	return r.upsert(ctx, title, "previous_quote_price", price)
}

func (r *pgRepository) UpsertVendorPrice(ctx context.Context, title string, price float64) error {
	return r.upsert(ctx, title, "previous_vendor_price", price)
}

func (r *pgRepository) upsert(ctx context.Context, title, column string, price float64) error {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil
	}
	// column is one of two fixed identifiers above, never client input.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (title, `+column+`, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (title)
		DO UPDATE SET `+column+` = $2, updated_at = NOW()
	`, title, price)
	return err
}
