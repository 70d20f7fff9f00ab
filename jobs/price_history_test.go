package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducts struct {
	mu           sync.Mutex
	quotePrices  map[string]float64
	vendorPrices map[string]float64
	failFor      map[string]error
}

func newMockProducts() *mockProducts {
	return &mockProducts{
		quotePrices:  make(map[string]float64),
		vendorPrices: make(map[string]float64),
		failFor:      make(map[string]error),
	}
}

func (m *mockProducts) UpsertQuotePrice(ctx context.Context, title string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[title]; err != nil {
		return err
	}
	m.quotePrices[title] = price
	return nil
}

func (m *mockProducts) UpsertVendorPrice(ctx context.Context, title string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[title]; err != nil {
		return err
	}
	m.vendorPrices[title] = price
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPriceHistoryHandle(t *testing.T) {
	repo := newMockProducts()
	job := NewPriceHistoryJob(repo, testLogger(), nil)

	task, err := NewPriceHistoryTask(PriceHistoryPayload{
		Source: "quote",
		Entries: []PriceEntry{
			{ProductName: "Steel pipe", Price: 100},
			{ProductName: "", Price: 5},
			{ProductName: "Valve", Price: 50},
		},
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.InDelta(t, 100.0, repo.quotePrices["Steel pipe"], 1e-9)
	assert.InDelta(t, 50.0, repo.quotePrices["Valve"], 1e-9)
	assert.Empty(t, repo.vendorPrices)
}

func TestPriceHistoryVendorSource(t *testing.T) {
	repo := newMockProducts()
	job := NewPriceHistoryJob(repo, testLogger(), nil)

	task, err := NewPriceHistoryTask(PriceHistoryPayload{
		Source:  "vendor",
		Entries: []PriceEntry{{ProductName: "Raw sheet", Price: 40}},
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.InDelta(t, 40.0, repo.vendorPrices["Raw sheet"], 1e-9)
	assert.Empty(t, repo.quotePrices)
}

func TestPriceHistoryBadPayloadDropped(t *testing.T) {
	job := NewPriceHistoryJob(newMockProducts(), testLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypePriceHistory, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, mkErr := NewPriceHistoryTask(PriceHistoryPayload{Source: "somewhere"})
	require.NoError(t, mkErr)
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPriceHistoryPartialFailureSucceeds(t *testing.T) {
	repo := newMockProducts()
	repo.failFor["Valve"] = fmt.Errorf("deadlock")
	job := NewPriceHistoryJob(repo, testLogger(), nil)

	task, err := NewPriceHistoryTask(PriceHistoryPayload{
		Source: "quote",
		Entries: []PriceEntry{
			{ProductName: "Steel pipe", Price: 100},
			{ProductName: "Valve", Price: 50},
		},
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.InDelta(t, 100.0, repo.quotePrices["Steel pipe"], 1e-9)
}

func TestPriceHistoryTotalFailureRetries(t *testing.T) {
	repo := newMockProducts()
	repo.failFor["Steel pipe"] = fmt.Errorf("connection refused")
	job := NewPriceHistoryJob(repo, testLogger(), nil)

	task, err := NewPriceHistoryTask(PriceHistoryPayload{
		Source:  "quote",
		Entries: []PriceEntry{{ProductName: "Steel pipe", Price: 100}},
	})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "transient failure must stay retryable")
}
