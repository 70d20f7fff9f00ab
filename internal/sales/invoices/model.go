package invoices

import "time"

// Status is the invoice lifecycle status.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusIssued    Status = "Issued"
	StatusCancelled Status = "Cancelled"
)

// Transportation is an optional freight surcharge carried on the invoice.
type Transportation struct {
	Included bool    `json:"included"`
	Amount   float64 `json:"amount"`
}

// Invoice bills a sell order. It carries no financials of its own; amounts
// live on the referenced quote, which stays the single source of truth.
type Invoice struct {
	ID             int64          `json:"id"`
	InvoiceNumber  string         `json:"invoiceNumber"`
	DocumentDate   time.Time      `json:"documentDate"`
	CustomerRefNo  string         `json:"customerRefNo,omitempty"`
	Description    string         `json:"description,omitempty"`
	SellOrderID    int64          `json:"sellOrder"`
	Transportation Transportation `json:"transportation"`
	Terms          []string       `json:"termsAndConditions,omitempty"`
	Status         Status         `json:"status"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
