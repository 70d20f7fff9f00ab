package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

// NewRepository returns the Postgres-backed quote store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `
	id, quote_number, owner_id, subject, deal_id, account_id, contact_id,
	stage, next_step, currency, valid_until, description, terms,
	sub_total, discount_total, is_gst_applied, gst_rate, gst_amount,
	other_taxes, other_tax_amount, grand_total,
	po_public_id, po_url, is_so_approved, approved_at, confirmed_date,
	is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	otherTaxes, err := json.Marshal(q.OtherTaxes)
	if err != nil {
		return 0, err
	}

	var poPublicID, poURL *string
	if q.PurchaseOrder != nil {
		poPublicID = &q.PurchaseOrder.PublicID
		poURL = &q.PurchaseOrder.URL
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO quotes (
			quote_number, owner_id, subject, deal_id, account_id, contact_id,
			stage, next_step, currency, valid_until, description, terms,
			sub_total, discount_total, is_gst_applied, gst_rate, gst_amount,
			other_taxes, other_tax_amount, grand_total,
			po_public_id, po_url, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23
		)
		RETURNING id
	`,
		q.QuoteNumber, q.OwnerID, q.Subject, q.DealID, q.AccountID, q.ContactID,
		string(q.Stage), q.NextStep, q.Currency, q.ValidUntil, q.Description, q.Terms,
		q.SubTotal, q.DiscountTotal, q.GSTApplied, q.GSTRate, q.GSTAmount,
		otherTaxes, q.OtherTaxAmount, q.GrandTotal,
		poPublicID, poURL, q.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertLineItems(ctx context.Context, quoteID int64, items []billing.LineItem) error {
	for _, item := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO quote_line_items (
				quote_id, serial_no, product_name, description,
				quantity, unit_price, discount, amount, total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			quoteID, item.SerialNo, item.ProductName, item.Description,
			item.Quantity, item.UnitPrice, item.Discount, item.Amount, item.Total,
		)
		if err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}
	return nil
}

func (r *repository) DeleteLineItems(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_line_items WHERE quote_id = $1`, quoteID)
	return err
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *repository) GetActive(ctx context.Context, id int64) (*Quote, error) {
	return r.getWhere(ctx, "id = $1 AND is_active", id)
}

func (r *repository) getWhere(ctx context.Context, where string, arg any) (*Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE `+where, arg)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	items, err := r.lineItems(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) lineItems(ctx context.Context, quoteID int64) ([]billing.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT serial_no, product_name, description, quantity, unit_price, discount, amount, total
		FROM quote_line_items
		WHERE quote_id = $1
		ORDER BY serial_no
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []billing.LineItem
	for rows.Next() {
		var item billing.LineItem
		if err := rows.Scan(
			&item.SerialNo, &item.ProductName, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.Discount, &item.Amount, &item.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int64) ([]QuoteWithOwner, error) {
	return r.list(ctx, "q.owner_id = $1 AND q.is_active", ownerID)
}

func (r *repository) ListAll(ctx context.Context) ([]QuoteWithOwner, error) {
	return r.list(ctx, "TRUE")
}

func (r *repository) list(ctx context.Context, where string, args ...any) ([]QuoteWithOwner, error) {
	query := `
		SELECT ` + prefixColumns("q", quoteColumns) + `,
		       u.full_name AS owner_name,
		       d.deal_name AS deal_name
		FROM quotes q
		JOIN users u ON q.owner_id = u.id
		JOIN deals d ON q.deal_id = d.id
		WHERE ` + where + `
		ORDER BY q.created_at DESC, q.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []QuoteWithOwner
	for rows.Next() {
		q, ownerName, dealName, err := scanQuoteWithNames(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, QuoteWithOwner{Quote: *q, OwnerName: ownerName, DealName: dealName})
	}
	return quotes, rows.Err()
}

func (r *repository) Update(ctx context.Context, q *Quote) error {
	otherTaxes, err := json.Marshal(q.OtherTaxes)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET
			subject = $2, stage = $3, next_step = $4, currency = $5,
			valid_until = $6, description = $7,
			sub_total = $8, discount_total = $9,
			is_gst_applied = $10, gst_rate = $11, gst_amount = $12,
			other_taxes = $13, other_tax_amount = $14, grand_total = $15,
			updated_at = NOW()
		WHERE id = $1
	`,
		q.ID, q.Subject, string(q.Stage), q.NextStep, q.Currency,
		q.ValidUntil, q.Description,
		q.SubTotal, q.DiscountTotal,
		q.GSTApplied, q.GSTRate, q.GSTAmount,
		otherTaxes, q.OtherTaxAmount, q.GrandTotal,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetStage(ctx context.Context, id int64, stage Stage, po *Attachment, confirmedAt *time.Time) error {
	var poPublicID, poURL *string
	if po != nil {
		poPublicID = &po.PublicID
		poURL = &po.URL
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET
			stage = $2,
			po_public_id = COALESCE($3, po_public_id),
			po_url = COALESCE($4, po_url),
			confirmed_date = COALESCE($5, confirmed_date),
			updated_at = NOW()
		WHERE id = $1
	`, id, string(stage), poPublicID, poURL, confirmedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) MarkApproved(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET is_so_approved = TRUE, approved_at = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_so_approved
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote already approved", httpx.ErrValidation)
	}
	return nil
}

func (r *repository) RecordOwnerSale(ctx context.Context, ownerID int64, amount float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET total_sell = total_sell + $2, updated_at = NOW()
		WHERE id = $1
	`, ownerID, amount)
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
		UPDATE quotes SET is_active = FALSE, updated_at = NOW()
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

func scanQuote(row pgx.Row) (*Quote, error) {
	q, _, _, err := scanQuoteInto(row, false)
	return q, err
}

func scanQuoteWithNames(row pgx.Row) (*Quote, string, string, error) {
	return scanQuoteInto(row, true)
}

func scanQuoteInto(row pgx.Row, withNames bool) (*Quote, string, string, error) {
	var q Quote
	var stage string
	var otherTaxes []byte
	var poPublicID, poURL *string
	var ownerName, dealName string

	dest := []any{
		&q.ID, &q.QuoteNumber, &q.OwnerID, &q.Subject, &q.DealID, &q.AccountID, &q.ContactID,
		&stage, &q.NextStep, &q.Currency, &q.ValidUntil, &q.Description, &q.Terms,
		&q.SubTotal, &q.DiscountTotal, &q.GSTApplied, &q.GSTRate, &q.GSTAmount,
		&otherTaxes, &q.OtherTaxAmount, &q.GrandTotal,
		&poPublicID, &poURL, &q.IsSOApproved, &q.ApprovedAt, &q.ConfirmedDate,
		&q.IsActive, &q.CreatedAt, &q.UpdatedAt,
	}
	if withNames {
		dest = append(dest, &ownerName, &dealName)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, "", "", err
	}

	q.Stage = Stage(stage)
	if len(otherTaxes) > 0 {
		if err := json.Unmarshal(otherTaxes, &q.OtherTaxes); err != nil {
			return nil, "", "", err
		}
	}
	if poPublicID != nil || poURL != nil {
		q.PurchaseOrder = &Attachment{}
		if poPublicID != nil {
			q.PurchaseOrder.PublicID = *poPublicID
		}
		if poURL != nil {
			q.PurchaseOrder.URL = *poURL
		}
	}
	return &q, ownerName, dealName, nil
}

// prefixColumns rewrites the shared column list with a table alias for
// joined queries.
func prefixColumns(alias, columns string) string {
	out := ""
	for i, col := range splitColumns(columns) {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + col
	}
	return out
}

func splitColumns(columns string) []string {
	var cols []string
	field := ""
	for _, r := range columns {
		switch r {
		case ',':
			cols = append(cols, field)
			field = ""
		case ' ', '\n', '\t':
		default:
			field += string(r)
		}
	}
	if field != "" {
		cols = append(cols, field)
	}
	return cols
}
