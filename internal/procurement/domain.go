// Package procurement manages purchase orders raised to vendors. A vendor
// PO shares the quote's financial shape but applies GST to the subtotal
// directly, carries no per-line discount or ad-hoc taxes, and numbers from
// its own sequence domain. It has no stage machine beyond soft deletion.
package procurement

import (
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
)

// VendorPO is a purchase order sent to a vendor.
type VendorPO struct {
	ID          int64              `json:"id"`
	PONumber    string             `json:"poToNumber"`
	Subject     string             `json:"subject"`
	RefQuoteID  *int64             `json:"refQuote,omitempty"`
	VendorID    *int64             `json:"vendor,omitempty"`
	ValidUntil  *time.Time         `json:"validUntil,omitempty"`
	Description string             `json:"description,omitempty"`
	Terms       []string           `json:"termsAndConditions,omitempty"`
	Items       []billing.LineItem `json:"products"`

	billing.Totals

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreatePORequest carries the client payload for PO creation and, because
// the legacy contract requires the full document on every edit, for updates
// too.
type CreatePORequest struct {
	Subject      string                  `json:"subject" validate:"required"`
	RefQuoteID   *int64                  `json:"refQuote,omitempty"`
	VendorID     *int64                  `json:"vendor,omitempty"`
	ValidUntil   *time.Time              `json:"validUntil,omitempty"`
	Description  string                  `json:"description,omitempty"`
	Terms        []string                `json:"termsAndConditions,omitempty"`
	Products     []billing.RawPOLineItem `json:"products" validate:"required,min=1"`
	IsGSTApplied bool                    `json:"isGstApplied"`
	GSTRate      billing.Number          `json:"gstRate"`
}
