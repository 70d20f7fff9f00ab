package invoices

import "time"

// CreateInvoiceRequest carries the client payload for invoice creation.
type CreateInvoiceRequest struct {
	DocumentDate   *time.Time      `json:"documentDate,omitempty"`
	CustomerRefNo  string          `json:"customerRefNo,omitempty"`
	Description    string          `json:"description,omitempty"`
	SellOrderID    int64           `json:"sellOrder" validate:"required,gt=0"`
	Transportation *Transportation `json:"transportation,omitempty"`
	Terms          []string        `json:"termsAndConditions,omitempty"`
}

// UpdateInvoiceRequest carries a partial header update. The sell-order
// reference is immutable after creation; status changes go through the
// issue and cancel operations.
type UpdateInvoiceRequest struct {
	DocumentDate   *time.Time      `json:"documentDate,omitempty"`
	CustomerRefNo  *string         `json:"customerRefNo,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Transportation *Transportation `json:"transportation,omitempty"`
	Terms          *[]string       `json:"termsAndConditions,omitempty"`
}
