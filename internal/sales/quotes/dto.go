package quotes

import (
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
)

// CreateQuoteRequest carries the client payload for quote creation. Amounts
// are never taken from the wire; products hold raw inputs only.
type CreateQuoteRequest struct {
	Subject      string                `json:"subject" validate:"required"`
	DealID       int64                 `json:"deal" validate:"required,gt=0"`
	ContactID    *int64                `json:"contact,omitempty"`
	ValidUntil   *time.Time            `json:"validUntil,omitempty"`
	Currency     string                `json:"currency,omitempty"`
	Description  string                `json:"description,omitempty"`
	Terms        []string              `json:"termsAndConditions,omitempty"`
	Products     []billing.RawLineItem `json:"products" validate:"required,min=1"`
	IsGSTApplied bool                  `json:"isGstApplied"`
	GSTRate      billing.Number        `json:"gstRate"`
	OtherTaxes   []billing.RawTaxLine  `json:"otherTax,omitempty"`
}

// UpdateQuoteRequest carries a partial update. Nil products means the
// previous subtotal and discount total are retained and only the tax pass
// reruns (billing partial-update mode). An omitted GST flag turns GST off,
// matching the system this replaces.
type UpdateQuoteRequest struct {
	Subject      *string                `json:"subject,omitempty"`
	Stage        *string                `json:"quoteStage,omitempty"`
	NextStep     *string                `json:"nextStep,omitempty"`
	ValidUntil   *time.Time             `json:"validUntil,omitempty"`
	Currency     *string                `json:"currency,omitempty"`
	Description  *string                `json:"description,omitempty"`
	Products     *[]billing.RawLineItem `json:"products,omitempty"`
	IsGSTApplied bool                   `json:"isGstApplied"`
	GSTRate      billing.Number         `json:"gstRate"`
	OtherTaxes   *[]billing.RawTaxLine  `json:"otherTax,omitempty"`
}

// TransitionStageRequest carries a stage change and the optional
// purchase-order attachment reference that must accompany Confirmed.
type TransitionStageRequest struct {
	Stage         string      `json:"quoteStage" validate:"required"`
	PurchaseOrder *Attachment `json:"purchaseOrder,omitempty"`
}
