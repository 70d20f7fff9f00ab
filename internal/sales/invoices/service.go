package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/sales/quotes"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
)

// QuoteReader is the slice of the quote store invoice creation needs.
type QuoteReader interface {
	GetActive(ctx context.Context, id int64) (*quotes.Quote, error)
}

// Repository is the invoice storage contract.
type Repository interface {
	Create(ctx context.Context, inv Invoice) (int64, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	// FindActiveBySellOrder locates the live invoice for a sell order, if
	// one exists. At most one active invoice may reference a sell order.
	FindActiveBySellOrder(ctx context.Context, sellOrderID int64) (*Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	SoftDelete(ctx context.Context, id int64) error
}

// Service owns the invoice lifecycle.
type Service struct {
	repo   Repository
	quotes QuoteReader
	seq    *sequence.Service
	clock  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, quoteRepo QuoteReader, seq *sequence.Service) *Service {
	return &Service{
		repo:   repo,
		quotes: quoteRepo,
		seq:    seq,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Create raises an invoice against an active sell order. A sell order can
// carry at most one active invoice; the number comes from the atomic
// sequence counter.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if _, err := s.quotes.GetActive(ctx, req.SellOrderID); err != nil {
		return nil, fmt.Errorf("verify sell order: %w", err)
	}

	if existing, err := s.repo.FindActiveBySellOrder(ctx, req.SellOrderID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: invoice already exists for this sell order", httpx.ErrDuplicate)
	}

	number, err := s.seq.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	inv := Invoice{
		InvoiceNumber: number,
		DocumentDate:  s.clock(),
		CustomerRefNo: req.CustomerRefNo,
		Description:   req.Description,
		SellOrderID:   req.SellOrderID,
		Terms:         req.Terms,
		Status:        StatusDraft,
		IsActive:      true,
	}
	if req.DocumentDate != nil {
		inv.DocumentDate = *req.DocumentDate
	}
	if req.Transportation != nil {
		inv.Transportation = *req.Transportation
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial header change. Only a draft invoice is editable;
// issued and cancelled documents are frozen.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only a draft invoice can be updated", httpx.ErrValidation)
	}

	if req.DocumentDate != nil {
		inv.DocumentDate = *req.DocumentDate
	}
	if req.CustomerRefNo != nil {
		inv.CustomerRefNo = *req.CustomerRefNo
	}
	if req.Description != nil {
		inv.Description = *req.Description
	}
	if req.Transportation != nil {
		inv.Transportation = *req.Transportation
	}
	if req.Terms != nil {
		inv.Terms = *req.Terms
	}

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Issue moves a draft invoice to Issued. There is no way back to Draft.
func (s *Service) Issue(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only a draft invoice can be issued", httpx.ErrValidation)
	}

	inv.Status = StatusIssued
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Cancel voids a draft or issued invoice. Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: invoice is already cancelled", httpx.ErrValidation)
	}

	inv.Status = StatusCancelled
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("cancel invoice: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns an invoice by id.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns active invoices, newest first.
func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	return s.repo.List(ctx)
}

// SoftDelete deactivates an invoice.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

