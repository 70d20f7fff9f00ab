package invoices

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed invoice store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const invoiceColumns = `
	id, invoice_number, document_date, customer_ref_no, description,
	sell_order_id, transport_included, transport_amount, terms, status,
	is_active, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			invoice_number, document_date, customer_ref_no, description,
			sell_order_id, transport_included, transport_amount, terms,
			status, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		inv.InvoiceNumber, inv.DocumentDate, inv.CustomerRefNo, inv.Description,
		inv.SellOrderID, inv.Transportation.Included, inv.Transportation.Amount,
		inv.Terms, string(inv.Status), inv.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND is_active`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *pgRepository) FindActiveBySellOrder(ctx context.Context, sellOrderID int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE sell_order_id = $1 AND is_active
		LIMIT 1
	`, sellOrderID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE is_active
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			document_date = $2, customer_ref_no = $3, description = $4,
			transport_included = $5, transport_amount = $6, terms = $7,
			status = $8, updated_at = NOW()
		WHERE id = $1 AND is_active
	`,
		inv.ID, inv.DocumentDate, inv.CustomerRefNo, inv.Description,
		inv.Transportation.Included, inv.Transportation.Amount, inv.Terms,
		string(inv.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *pgRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.DocumentDate, &inv.CustomerRefNo, &inv.Description,
		&inv.SellOrderID, &inv.Transportation.Included, &inv.Transportation.Amount,
		&inv.Terms, &status, &inv.IsActive, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = Status(status)
	return &inv, nil
}
