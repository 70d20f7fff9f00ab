// Package sequence issues gap-free, monotonically increasing document
// numbers. One counter row exists per numbering domain; the increment and
// the read happen in a single statement so concurrent callers always
// receive distinct, contiguous values.
package sequence

import (
	"context"
	"fmt"
)

// Numbering domains. Every document type draws from the counter table; the
// legacy count-rows-then-format scheme for invoices and vendor POs collided
// under concurrent creation and is gone.
const (
	DomainQuotation = "quotation"
	DomainInvoice   = "invoice"
	DomainVendorPO  = "vendor_po"
)

// Repository is the storage contract. NextSeq must be a single atomic
// increment-and-read, not a read-then-write pair.
type Repository interface {
	NextSeq(ctx context.Context, domain string) (int64, error)
}

// Service issues sequence numbers and formats document numbers.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Next returns the next value for domain, creating the counter at 1 on
// first use.
func (s *Service) Next(ctx context.Context, domain string) (int64, error) {
	seq, err := s.repo.NextSeq(ctx, domain)
	if err != nil {
		return 0, fmt.Errorf("sequence: next %s: %w", domain, err)
	}
	return seq, nil
}

// NextQuoteNumber issues a formatted quotation number, e.g. TS-QUO-00001.
func (s *Service) NextQuoteNumber(ctx context.Context) (string, error) {
	seq, err := s.Next(ctx, DomainQuotation)
	if err != nil {
		return "", err
	}
	return FormatQuoteNumber(seq), nil
}

// NextInvoiceNumber issues a formatted invoice number, e.g. INV-TS-00001.
func (s *Service) NextInvoiceNumber(ctx context.Context) (string, error) {
	seq, err := s.Next(ctx, DomainInvoice)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(seq), nil
}

// NextPONumber issues a formatted vendor PO number, e.g. PO-V-00001.
func (s *Service) NextPONumber(ctx context.Context) (string, error) {
	seq, err := s.Next(ctx, DomainVendorPO)
	if err != nil {
		return "", err
	}
	return FormatPONumber(seq), nil
}

// FormatQuoteNumber renders a quotation sequence value.
func FormatQuoteNumber(seq int64) string {
	return fmt.Sprintf("TS-QUO-%05d", seq)
}

// FormatInvoiceNumber renders an invoice sequence value.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("INV-TS-%05d", seq)
}

// FormatPONumber renders a vendor PO sequence value.
func FormatPONumber(seq int64) string {
	return fmt.Sprintf("PO-V-%05d", seq)
}
