package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (m *memRepo) NextSeq(ctx context.Context, domain string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	m.seqs[domain]++
	return m.seqs[domain], nil
}

func TestNextIsPerDomain(t *testing.T) {
	svc := NewService(&memRepo{})
	ctx := context.Background()

	q1, err := svc.NextQuoteNumber(ctx)
	require.NoError(t, err)
	q2, err := svc.NextQuoteNumber(ctx)
	require.NoError(t, err)
	inv, err := svc.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	po, err := svc.NextPONumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, "TS-QUO-00001", q1)
	assert.Equal(t, "TS-QUO-00002", q2)
	assert.Equal(t, "INV-TS-00001", inv, "domains count independently")
	assert.Equal(t, "PO-V-00001", po)
}

func TestConcurrentNextIsGapFree(t *testing.T) {
	svc := NewService(&memRepo{})
	ctx := context.Background()

	const n = 64
	results := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seq, err := svc.Next(ctx, DomainQuotation)
			assert.NoError(t, err)
			results[i] = seq
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, seq := range results {
		require.Equal(t, int64(i+1), seq, "values must be distinct and contiguous")
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "TS-QUO-00007", FormatQuoteNumber(7))
	assert.Equal(t, "INV-TS-00042", FormatInvoiceNumber(42))
	assert.Equal(t, "PO-V-00100", FormatPONumber(100))
	// Pad does not truncate beyond five digits.
	assert.Equal(t, "TS-QUO-123456", FormatQuoteNumber(123456))
}
