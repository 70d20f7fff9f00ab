package invoices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/sales/quotes"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
)

type mockRepository struct {
	mu       sync.Mutex
	invoices map[int64]*Invoice
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{invoices: make(map[int64]*Invoice), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	inv.ID = id
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	m.invoices[id] = &inv
	return id, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok || !inv.IsActive {
		return nil, httpx.ErrNotFound
	}
	out := *inv
	return &out, nil
}

func (m *mockRepository) FindActiveBySellOrder(ctx context.Context, sellOrderID int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.SellOrderID == sellOrderID && inv.IsActive {
			out := *inv
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.IsActive {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.ID]; !ok {
		return httpx.ErrNotFound
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok || !inv.IsActive {
		return httpx.ErrNotFound
	}
	inv.IsActive = false
	return nil
}

type mockQuotes struct {
	quotes map[int64]*quotes.Quote
}

func (m *mockQuotes) GetActive(ctx context.Context, id int64) (*quotes.Quote, error) {
	q, ok := m.quotes[id]
	if !ok || !q.IsActive {
		return nil, httpx.ErrNotFound
	}
	return q, nil
}

type memSeqRepo struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (m *memSeqRepo) NextSeq(ctx context.Context, domain string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	m.seqs[domain]++
	return m.seqs[domain], nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	quoteRepo := &mockQuotes{quotes: map[int64]*quotes.Quote{
		1: {ID: 1, QuoteNumber: "TS-QUO-00001", IsActive: true},
		2: {ID: 2, QuoteNumber: "TS-QUO-00002", IsActive: false},
	}}
	return NewService(repo, quoteRepo, sequence.NewService(&memSeqRepo{})), repo
}

func TestCreateInvoice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		SellOrderID:   1,
		CustomerRefNo: "REF-991",
		Transportation: &Transportation{Included: true, Amount: 1500},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-TS-00001", inv.InvoiceNumber)
	assert.Equal(t, int64(1), inv.SellOrderID)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.True(t, inv.Transportation.Included)
	assert.InDelta(t, 1500.0, inv.Transportation.Amount, 1e-9)
	assert.False(t, inv.DocumentDate.IsZero(), "document date defaults to now")
}

func TestCreateInvoiceDuplicateSellOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Contains(t, err.Error(), "invoice already exists for this sell order")
}

func TestCreateInvoiceAfterDeleteAllowed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, first.ID))

	// The uniqueness rule binds active invoices only.
	second, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INV-TS-00002", second.InvoiceNumber)
}

func TestCreateInvoiceSellOrderMissingOrInactive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 99})
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 2})
	assert.ErrorIs(t, err, httpx.ErrNotFound, "deactivated sell order cannot be invoiced")
}

func TestUpdateInvoice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)

	ref := "REF-7"
	updated, err := svc.Update(ctx, inv.ID, UpdateInvoiceRequest{CustomerRefNo: &ref})
	require.NoError(t, err)
	assert.Equal(t, "REF-7", updated.CustomerRefNo)
	assert.Equal(t, StatusDraft, updated.Status)
	assert.Equal(t, inv.SellOrderID, updated.SellOrderID, "sell-order reference is immutable")
}

func TestUpdateInvoiceOnlyWhileDraft(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	ref := "REF-7"
	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceRequest{CustomerRefNo: &ref})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "only a draft invoice can be updated")

	got, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CustomerRefNo, "rejected update must not persist")
}

func TestIssueInvoice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)

	issued, err := svc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, issued.Status)

	// Issuing is Draft-only; a second issue is rejected.
	_, err = svc.Issue(ctx, inv.ID)
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "only a draft invoice can be issued")
}

func TestCancelInvoice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{SellOrderID: 1})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled is terminal: no re-cancel, no issue, no edits.
	_, err = svc.Cancel(ctx, inv.ID)
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "already cancelled")

	_, err = svc.Issue(ctx, inv.ID)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	ref := "REF-7"
	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceRequest{CustomerRefNo: &ref})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
