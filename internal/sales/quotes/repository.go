package quotes

import (
	"context"
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
)

// Repository is the quote storage contract. Update persists the header and
// the whole financial block in one statement so readers never observe a
// half-recomputed document.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, q Quote) (int64, error)
	InsertLineItems(ctx context.Context, quoteID int64, items []billing.LineItem) error
	DeleteLineItems(ctx context.Context, quoteID int64) error
	Get(ctx context.Context, id int64) (*Quote, error)
	GetActive(ctx context.Context, id int64) (*Quote, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]QuoteWithOwner, error)
	ListAll(ctx context.Context) ([]QuoteWithOwner, error)
	Update(ctx context.Context, q *Quote) error
	SetStage(ctx context.Context, id int64, stage Stage, po *Attachment, confirmedAt *time.Time) error
	// MarkApproved flips the approval flag exactly once; a second call for
	// the same quote reports the repeat instead of silently succeeding.
	MarkApproved(ctx context.Context, id int64, at time.Time) error
	// RecordOwnerSale adds a base-currency amount to the owning user's
	// cumulative recorded sales.
	RecordOwnerSale(ctx context.Context, ownerID int64, amount float64) error
	SoftDelete(ctx context.Context, id int64) error
}
