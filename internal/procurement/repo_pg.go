package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
	"github.com/tradesphere/tradesphere-crm/internal/platform/db"
	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed vendor PO store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const poColumns = `
	id, po_number, subject, ref_quote_id, vendor_id, valid_until,
	description, terms, sub_total, is_gst_applied, gst_rate, gst_amount,
	grand_total, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, po VendorPO) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO vendor_pos (
			po_number, subject, ref_quote_id, vendor_id, valid_until,
			description, terms, sub_total, is_gst_applied, gst_rate,
			gst_amount, grand_total, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		po.PONumber, po.Subject, po.RefQuoteID, po.VendorID, po.ValidUntil,
		po.Description, po.Terms, po.SubTotal, po.GSTApplied, po.GSTRate,
		po.GSTAmount, po.GrandTotal, po.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertLineItems(ctx context.Context, poID int64, items []billing.LineItem) error {
	for _, item := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO vendor_po_line_items (
				po_id, serial_no, product_name, quantity, unit_price, amount, total
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			poID, item.SerialNo, item.ProductName, item.Quantity,
			item.UnitPrice, item.Amount, item.Total,
		)
		if err != nil {
			return fmt.Errorf("insert po line item: %w", err)
		}
	}
	return nil
}

func (r *repository) DeleteLineItems(ctx context.Context, poID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vendor_po_line_items WHERE po_id = $1`, poID)
	return err
}

func (r *repository) Get(ctx context.Context, id int64) (*VendorPO, error) {
	row := r.db.QueryRow(ctx, `SELECT `+poColumns+` FROM vendor_pos WHERE id = $1 AND is_active`, id)
	po, err := scanPO(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	items, err := r.lineItems(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

func (r *repository) lineItems(ctx context.Context, poID int64) ([]billing.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT serial_no, product_name, quantity, unit_price, amount, total
		FROM vendor_po_line_items
		WHERE po_id = $1
		ORDER BY serial_no
	`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []billing.LineItem
	for rows.Next() {
		var item billing.LineItem
		if err := rows.Scan(
			&item.SerialNo, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.Amount, &item.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]VendorPO, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+poColumns+` FROM vendor_pos
		WHERE is_active
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pos []VendorPO
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, *po)
	}
	return pos, rows.Err()
}

func (r *repository) Update(ctx context.Context, po *VendorPO) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendor_pos SET
			subject = $2, ref_quote_id = $3, vendor_id = $4, valid_until = $5,
			description = $6, terms = $7, sub_total = $8, is_gst_applied = $9,
			gst_rate = $10, gst_amount = $11, grand_total = $12, updated_at = NOW()
		WHERE id = $1 AND is_active
	`,
		po.ID, po.Subject, po.RefQuoteID, po.VendorID, po.ValidUntil,
		po.Description, po.Terms, po.SubTotal, po.GSTApplied,
		po.GSTRate, po.GSTAmount, po.GrandTotal,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendor_pos SET is_active = FALSE, updated_at = NOW()
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

func scanPO(row pgx.Row) (*VendorPO, error) {
	var po VendorPO
	err := row.Scan(
		&po.ID, &po.PONumber, &po.Subject, &po.RefQuoteID, &po.VendorID, &po.ValidUntil,
		&po.Description, &po.Terms, &po.SubTotal, &po.GSTApplied, &po.GSTRate,
		&po.GSTAmount, &po.GrandTotal, &po.IsActive, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &po, nil
}
