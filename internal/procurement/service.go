package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
	"github.com/tradesphere/tradesphere-crm/internal/masterdata/products"
	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
	"github.com/tradesphere/tradesphere-crm/jobs"
)

// PriceRecorder enqueues the best-effort vendor price tracking.
type PriceRecorder interface {
	EnqueuePriceHistory(ctx context.Context, source string, entries []jobs.PriceEntry) error
}

// Repository is the vendor PO storage contract.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, po VendorPO) (int64, error)
	InsertLineItems(ctx context.Context, poID int64, items []billing.LineItem) error
	DeleteLineItems(ctx context.Context, poID int64) error
	Get(ctx context.Context, id int64) (*VendorPO, error)
	List(ctx context.Context) ([]VendorPO, error)
	Update(ctx context.Context, po *VendorPO) error
	SoftDelete(ctx context.Context, id int64) error
}

// Service owns the vendor PO lifecycle.
type Service struct {
	repo   Repository
	seq    *sequence.Service
	prices PriceRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, seq *sequence.Service, prices PriceRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, seq: seq, prices: prices, logger: logger}
}

// Create builds a vendor PO. Totals derive from the PO variant of the
// recompute (GST on subtotal, no discounts); the number comes from the
// atomic sequence counter, never from a row count.
func (s *Service) Create(ctx context.Context, req CreatePORequest) (*VendorPO, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", httpx.ErrValidation)
	}

	totals, items, err := billing.RecomputePO(req.Products, req.IsGSTApplied, req.GSTRate)
	if err != nil {
		return nil, err
	}

	number, err := s.seq.NextPONumber(ctx)
	if err != nil {
		return nil, err
	}

	po := VendorPO{
		PONumber:    number,
		Subject:     subject,
		RefQuoteID:  req.RefQuoteID,
		VendorID:    req.VendorID,
		ValidUntil:  req.ValidUntil,
		Description: req.Description,
		Terms:       req.Terms,
		Items:       items,
		Totals:      totals,
		IsActive:    true,
	}

	var poID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, po)
		if err != nil {
			return fmt.Errorf("create vendor po: %w", err)
		}
		poID = id
		return repo.InsertLineItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.recordPrices(ctx, items)

	return s.repo.Get(ctx, poID)
}

// Update replaces the whole document and recomputes totals. Subject and at
// least one product are required on every edit.
func (s *Service) Update(ctx context.Context, id int64, req CreatePORequest) (*VendorPO, error) {
	po, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vendor po: %w", err)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", httpx.ErrValidation)
	}

	totals, items, err := billing.RecomputePO(req.Products, req.IsGSTApplied, req.GSTRate)
	if err != nil {
		return nil, err
	}

	po.Subject = subject
	po.RefQuoteID = req.RefQuoteID
	po.VendorID = req.VendorID
	po.ValidUntil = req.ValidUntil
	po.Description = req.Description
	po.Terms = req.Terms
	po.Items = items
	po.Totals = totals

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update vendor po: %w", err)
		}
		if err := repo.DeleteLineItems(ctx, id); err != nil {
			return err
		}
		return repo.InsertLineItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.recordPrices(ctx, items)

	return s.repo.Get(ctx, id)
}

// Get returns a vendor PO by id.
func (s *Service) Get(ctx context.Context, id int64) (*VendorPO, error) {
	return s.repo.Get(ctx, id)
}

// List returns active vendor POs, newest first.
func (s *Service) List(ctx context.Context) ([]VendorPO, error) {
	return s.repo.List(ctx)
}

// SoftDelete deactivates a vendor PO.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) recordPrices(ctx context.Context, items []billing.LineItem) {
	if s.prices == nil {
		return
	}
	entries := make([]jobs.PriceEntry, 0, len(items))
	for _, item := range items {
		if item.ProductName == "" {
			continue
		}
		entries = append(entries, jobs.PriceEntry{ProductName: item.ProductName, Price: item.UnitPrice})
	}
	if len(entries) == 0 {
		return
	}
	if err := s.prices.EnqueuePriceHistory(ctx, products.SourceVendor, entries); err != nil {
		s.logger.Warn("vendor price history enqueue failed", slog.Any("error", err))
	}
}
