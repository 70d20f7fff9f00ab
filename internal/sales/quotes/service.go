package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
	"github.com/tradesphere/tradesphere-crm/internal/currency"
	"github.com/tradesphere/tradesphere-crm/internal/masterdata/products"
	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/sales/deals"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
	"github.com/tradesphere/tradesphere-crm/jobs"
)

// Converter is the slice of the currency converter the quote lifecycle
// needs: normalizing approved subtotals into the base currency.
type Converter interface {
	Base() string
	ToBase(ctx context.Context, amount float64, from string) (float64, error)
}

// PriceRecorder enqueues the best-effort price-history enrichment.
type PriceRecorder interface {
	EnqueuePriceHistory(ctx context.Context, source string, entries []jobs.PriceEntry) error
}

// Service owns the quote lifecycle: creation, recompute-on-edit, stage
// transitions and sell-order approval.
type Service struct {
	repo   Repository
	deals  deals.Repository
	seq    *sequence.Service
	fx     Converter
	prices PriceRecorder
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, dealRepo deals.Repository, seq *sequence.Service, fx Converter, prices PriceRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		deals:  dealRepo,
		seq:    seq,
		fx:     fx,
		prices: prices,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Create builds a quote from a deal and raw line items. The owning account
// comes from the deal and is frozen; totals are derived in one pass; the
// quote number is drawn from the atomic sequence counter.
func (s *Service) Create(ctx context.Context, actorID int64, req CreateQuoteRequest) (*Quote, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" || req.DealID == 0 {
		return nil, fmt.Errorf("%w: subject and deal are required", httpx.ErrValidation)
	}

	cur := req.Currency
	if cur == "" {
		cur = s.fx.Base()
	} else if err := currency.ValidateCode(cur); err != nil {
		return nil, err
	}

	lines := req.Products
	otherTaxes := req.OtherTaxes
	totals, items, err := billing.Recompute(billing.Totals{}, billing.RecomputeInput{
		Lines:      &lines,
		GSTApplied: req.IsGSTApplied,
		GSTRate:    req.GSTRate,
		OtherTaxes: &otherTaxes,
	})
	if err != nil {
		return nil, err
	}

	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("verify deal: %w", err)
	}

	number, err := s.seq.NextQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	quote := Quote{
		QuoteNumber: number,
		OwnerID:     actorID,
		Subject:     subject,
		DealID:      deal.ID,
		AccountID:   deal.AccountID,
		ContactID:   req.ContactID,
		Stage:       StageDraft,
		Currency:    cur,
		ValidUntil:  req.ValidUntil,
		Description: req.Description,
		Terms:       req.Terms,
		Items:       items,
		Totals:      totals,
		IsActive:    true,
	}

	var quoteID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, quote)
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		quoteID = id
		return repo.InsertLineItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.recordPrices(ctx, items)

	return s.repo.Get(ctx, quoteID)
}

// Update recomputes the financial block per the requested change. Omitted
// products keep the stored subtotal and discount total; only the tax pass
// reruns. Stage changes through Update pass the same transition guard as
// the dedicated stage operation, so Confirmed stays reachable only with an
// attachment.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest) (*Quote, error) {
	quote, err := s.repo.GetActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject == "" {
			return nil, fmt.Errorf("%w: subject must not be empty", httpx.ErrValidation)
		}
		quote.Subject = subject
	}
	if req.Stage != nil {
		stage, err := ParseStage(*req.Stage)
		if err != nil {
			return nil, err
		}
		if err := ValidateTransition(stage, nil); err != nil {
			return nil, err
		}
		quote.Stage = stage
	}
	if req.NextStep != nil {
		quote.NextStep = *req.NextStep
	}
	if req.ValidUntil != nil {
		quote.ValidUntil = req.ValidUntil
	}
	if req.Description != nil {
		quote.Description = *req.Description
	}
	if req.Currency != nil {
		if err := currency.ValidateCode(*req.Currency); err != nil {
			return nil, err
		}
		quote.Currency = *req.Currency
	}

	totals, items, err := billing.Recompute(quote.Totals, billing.RecomputeInput{
		Lines:      req.Products,
		GSTApplied: req.IsGSTApplied,
		GSTRate:    req.GSTRate,
		OtherTaxes: req.OtherTaxes,
	})
	if err != nil {
		return nil, err
	}
	quote.Totals = totals
	if req.Products != nil {
		quote.Items = items
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, quote); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if req.Products != nil {
			if err := repo.DeleteLineItems(ctx, id); err != nil {
				return err
			}
			return repo.InsertLineItems(ctx, id, items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Products != nil {
		s.recordPrices(ctx, items)
	}

	return s.repo.Get(ctx, id)
}

// TransitionStage applies a stage change with the attachment/stage coupling
// checked atomically. Entering Confirmed persists the attachment reference
// and stamps the confirmation time.
func (s *Service) TransitionStage(ctx context.Context, id int64, req TransitionStageRequest) (*Quote, error) {
	stage, err := ParseStage(req.Stage)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(stage, req.PurchaseOrder); err != nil {
		return nil, err
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	var po *Attachment
	var confirmedAt *time.Time
	if stage == StageConfirmed {
		po = req.PurchaseOrder
		now := s.clock()
		confirmedAt = &now
	}

	if err := s.repo.SetStage(ctx, id, stage, po, confirmedAt); err != nil {
		return nil, fmt.Errorf("set stage: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// Approve marks the sell order approved and credits the owner's cumulative
// recorded sales with the subtotal, converted to the base currency when the
// quote is foreign. The flag flip and the credit commit together; repeat
// approval is rejected so the credit applies exactly once.
func (s *Service) Approve(ctx context.Context, id int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	if quote.IsSOApproved {
		return nil, fmt.Errorf("%w: quote already approved", httpx.ErrValidation)
	}
	if math.IsNaN(quote.GrandTotal) || math.IsInf(quote.GrandTotal, 0) || quote.GrandTotal <= 0 {
		return nil, fmt.Errorf("%w: Invalid quote amount", httpx.ErrValidation)
	}

	amount := quote.SubTotal
	if quote.Currency != s.fx.Base() {
		amount, err = s.fx.ToBase(ctx, quote.SubTotal, quote.Currency)
		if err != nil {
			return nil, err
		}
	}
	amount = billing.Round(amount)

	now := s.clock()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.MarkApproved(ctx, id, now); err != nil {
			return err
		}
		return repo.RecordOwnerSale(ctx, quote.OwnerID, amount)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// Get returns a quote by id.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.GetActive(ctx, id)
}

// ListMine returns the caller's active quotes.
func (s *Service) ListMine(ctx context.Context, ownerID int64) ([]QuoteWithOwner, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns every quote, including inactive ones.
func (s *Service) ListAll(ctx context.Context) ([]QuoteWithOwner, error) {
	return s.repo.ListAll(ctx)
}

// SoftDelete deactivates a quote. Quotes are never hard-deleted.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// recordPrices enqueues last-known price tracking. It is best-effort: a
// broker failure is logged and discarded, never surfaced to the caller.
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
	if err := s.prices.EnqueuePriceHistory(ctx, products.SourceQuote, entries); err != nil {
		s.logger.Warn("price history enqueue failed", slog.Any("error", err))
	}
}
