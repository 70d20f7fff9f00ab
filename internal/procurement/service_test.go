package procurement

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesphere/tradesphere-crm/internal/billing"
	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
	"github.com/tradesphere/tradesphere-crm/jobs"
)

type mockRepository struct {
	mu     sync.Mutex
	pos    map[int64]*VendorPO
	lines  map[int64][]billing.LineItem
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		pos:    make(map[int64]*VendorPO),
		lines:  make(map[int64][]billing.LineItem),
		nextID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Create(ctx context.Context, po VendorPO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	po.ID = id
	po.CreatedAt = time.Now()
	po.UpdatedAt = po.CreatedAt
	m.pos[id] = &po
	return id, nil
}

func (m *mockRepository) InsertLineItems(ctx context.Context, poID int64, items []billing.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[poID] = append(m.lines[poID], items...)
	return nil
}

func (m *mockRepository) DeleteLineItems(ctx context.Context, poID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, poID)
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*VendorPO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.pos[id]
	if !ok || !po.IsActive {
		return nil, httpx.ErrNotFound
	}
	out := *po
	out.Items = m.lines[id]
	return &out, nil
}

func (m *mockRepository) List(ctx context.Context) ([]VendorPO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []VendorPO
	for _, po := range m.pos {
		if po.IsActive {
			out = append(out, *po)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, po *VendorPO) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pos[po.ID]; !ok {
		return httpx.ErrNotFound
	}
	cp := *po
	m.pos[po.ID] = &cp
	return nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.pos[id]
	if !ok || !po.IsActive {
		return httpx.ErrNotFound
	}
	po.IsActive = false
	return nil
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

type mockPrices struct {
	mu      sync.Mutex
	sources []string
	entries [][]jobs.PriceEntry
}

func (m *mockPrices) EnqueuePriceHistory(ctx context.Context, source string, entries []jobs.PriceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
	m.entries = append(m.entries, entries)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService() (*Service, *mockPrices) {
	prices := &mockPrices{}
	svc := NewService(newMockRepository(), sequence.NewService(&memSeqRepo{}), prices, discardLogger())
	return svc, prices
}

func validRequest() CreatePORequest {
	return CreatePORequest{
		Subject: "Raw material order",
		Products: []billing.RawPOLineItem{
			{ProductName: "Raw sheet", Quantity: billing.Num(10), UnitPrice: billing.Num(40)},
			{ProductName: "Bolts", Quantity: billing.Num(100), UnitPrice: billing.Num(0.5)},
		},
		IsGSTApplied: true,
		GSTRate:      billing.Num(18),
	}
}

func TestCreateVendorPO(t *testing.T) {
	svc, prices := newTestService()
	ctx := context.Background()

	po, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "PO-V-00001", po.PONumber)
	assert.True(t, po.IsActive)

	// Subtotal 450; GST applies to the subtotal: 81; grand 531.
	assert.InDelta(t, 450.0, po.SubTotal, 1e-9)
	assert.InDelta(t, 0.0, po.DiscountTotal, 1e-9)
	assert.InDelta(t, 81.0, po.GSTAmount, 1e-9)
	assert.InDelta(t, 531.0, po.GrandTotal, 1e-9)
	require.Len(t, po.Items, 2)
	assert.InDelta(t, po.Items[0].Amount, po.Items[0].Total, 1e-9, "no per-line discount on vendor POs")

	require.Len(t, prices.sources, 1)
	assert.Equal(t, "vendor", prices.sources[0])
}

func TestCreateVendorPOValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := validRequest()
	req.Subject = "  "
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	req = validRequest()
	req.Products = nil
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, billing.ErrNoLineItems)
}

func TestUpdateVendorPOReplacesDocument(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	po, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Subject = "Revised raw material order"
	req.Products = []billing.RawPOLineItem{
		{ProductName: "Raw sheet", Quantity: billing.Num(5), UnitPrice: billing.Num(40)},
	}
	req.IsGSTApplied = false

	updated, err := svc.Update(ctx, po.ID, req)
	require.NoError(t, err)

	assert.Equal(t, po.PONumber, updated.PONumber, "number survives edits")
	assert.Equal(t, "Revised raw material order", updated.Subject)
	assert.InDelta(t, 200.0, updated.SubTotal, 1e-9)
	assert.InDelta(t, 0.0, updated.GSTAmount, 1e-9)
	assert.InDelta(t, 200.0, updated.GrandTotal, 1e-9)
	require.Len(t, updated.Items, 1)

	// Updates require the full document.
	req.Products = nil
	_, err = svc.Update(ctx, po.ID, req)
	assert.ErrorIs(t, err, billing.ErrNoLineItems)
}

func TestSoftDeleteVendorPO(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	po, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, po.ID))
	_, err = svc.Get(ctx, po.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	err = svc.SoftDelete(ctx, po.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
