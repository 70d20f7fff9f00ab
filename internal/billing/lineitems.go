package billing

import (
	"fmt"
	"strings"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// ErrNoLineItems rejects documents created or updated without products.
var ErrNoLineItems = fmt.Errorf("%w: at least one product is required", httpx.ErrValidation)

// RawLineItem is a line item as submitted by the client. Amounts are never
// accepted from the wire; they are derived in NormalizeLineItems.
type RawLineItem struct {
	ProductName string `json:"productName"`
	Description string `json:"description,omitempty"`
	Quantity    Number `json:"quantity"`
	UnitPrice   Number `json:"listPrice"`
	Discount    Number `json:"discount"`
}

// LineItem is a normalized product row with computed amounts.
type LineItem struct {
	SerialNo    int     `json:"serialNo"`
	ProductName string  `json:"productName"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"listPrice"`
	Discount    float64 `json:"discount"`
	Amount      float64 `json:"amount"`
	Total       float64 `json:"total"`
}

// NormalizeLineItems turns raw rows into line items with derived amounts and
// returns the document subtotal and discount total. Quantity defaults to 1
// when absent, unparseable or not positive; unit price and discount default
// to 0. Serial numbers are reassigned on every pass.
func NormalizeLineItems(rows []RawLineItem) (items []LineItem, subTotal, discountTotal float64, err error) {
	if len(rows) == 0 {
		return nil, 0, 0, ErrNoLineItems
	}

	items = make([]LineItem, 0, len(rows))
	for i, row := range rows {
		quantity := row.Quantity.Positive(1)
		unitPrice := row.UnitPrice.Or(0)
		discount := row.Discount.Or(0)

		amount := quantity * unitPrice
		total := amount - discount

		subTotal += amount
		discountTotal += discount

		items = append(items, LineItem{
			SerialNo:    i + 1,
			ProductName: strings.TrimSpace(row.ProductName),
			Description: row.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Discount:    discount,
			Amount:      Round(amount),
			Total:       Round(total),
		})
	}

	return items, Round(subTotal), Round(discountTotal), nil
}

// RawPOLineItem is a vendor purchase order row. Vendor POs carry no per-line
// discount; total always equals amount.
type RawPOLineItem struct {
	ProductName string `json:"productName"`
	Quantity    Number `json:"quantity"`
	UnitPrice   Number `json:"listPrice"`
}

// NormalizePOLineItems normalizes vendor PO rows and returns the subtotal.
func NormalizePOLineItems(rows []RawPOLineItem) (items []LineItem, subTotal float64, err error) {
	if len(rows) == 0 {
		return nil, 0, ErrNoLineItems
	}

	items = make([]LineItem, 0, len(rows))
	for i, row := range rows {
		quantity := row.Quantity.Positive(1)
		unitPrice := row.UnitPrice.Or(0)

		amount := quantity * unitPrice
		subTotal += amount

		items = append(items, LineItem{
			SerialNo:    i + 1,
			ProductName: strings.TrimSpace(row.ProductName),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      Round(amount),
			Total:       Round(amount),
		})
	}

	return items, Round(subTotal), nil
}
