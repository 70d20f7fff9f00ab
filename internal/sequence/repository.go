package sequence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed counter store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// NextSeq increments and returns the counter for domain in one statement.
// The upsert creates missing counters at 1.
func (r *pgRepository) NextSeq(ctx context.Context, domain string) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sequence_counters (name, seq)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET seq = sequence_counters.seq + 1
		RETURNING seq
	`, domain).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
