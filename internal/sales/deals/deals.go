// Package deals exposes the read side of deals that quote creation needs:
// resolving the owning account. Deal CRUD is out of scope here.
package deals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// Deal is the subset of a deal record the sales modules read.
type Deal struct {
	ID        int64  `json:"id"`
	DealName  string `json:"dealName"`
	AccountID int64  `json:"account"`
	OwnerID   int64  `json:"dealOwner"`
}

// Repository reads deal records.
type Repository interface {
	Get(ctx context.Context, id int64) (*Deal, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed deal reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Deal, error) {
	var d Deal
	err := r.pool.QueryRow(ctx, `
		SELECT id, deal_name, account_id, owner_id
		FROM deals
		WHERE id = $1 AND is_active
	`, id).Scan(&d.ID, &d.DealName, &d.AccountID, &d.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
