package quotes

import (
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
)

// Attachment references an uploaded purchase-order document. Upload storage
// is external; only the reference is persisted.
type Attachment struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Quote is a sell order raised against a deal. Its financial block is
// derived exclusively through billing.Recompute; the account reference is
// resolved from the deal at creation time and frozen afterwards.
type Quote struct {
	ID          int64       `json:"id"`
	QuoteNumber string      `json:"quoteNumber"`
	OwnerID     int64       `json:"quoteOwner"`
	Subject     string      `json:"subject"`
	DealID      int64       `json:"deal"`
	AccountID   int64       `json:"account"`
	ContactID   *int64      `json:"contact,omitempty"`
	Stage       Stage       `json:"quoteStage"`
	NextStep    string      `json:"nextStep,omitempty"`
	Currency    string      `json:"currency"`
	ValidUntil  *time.Time  `json:"validUntil,omitempty"`
	Description string      `json:"description,omitempty"`
	Terms       []string    `json:"termsAndConditions,omitempty"`
	Items       []billing.LineItem `json:"products"`

	billing.Totals

	PurchaseOrder *Attachment `json:"purchaseOrder,omitempty"`
	IsSOApproved  bool        `json:"isSOApproved"`
	ApprovedAt    *time.Time  `json:"approvedAt,omitempty"`
	ConfirmedDate *time.Time  `json:"confirmedDate,omitempty"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QuoteWithOwner carries list-view display fields alongside the quote.
type QuoteWithOwner struct {
	Quote
	OwnerName string `json:"ownerName"`
	DealName  string `json:"dealName,omitempty"`
}
