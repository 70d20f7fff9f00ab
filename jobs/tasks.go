// Package jobs holds the background task definitions and the Asynq worker
// plumbing. The only task today is price-history enrichment: a
// fire-and-forget denormalization that must never fail the financial
// operation that spawned it.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/tradesphere/tradesphere-crm/internal/masterdata/products"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePriceHistory records last-known product prices after a quote
	// or vendor PO touches them.
	TaskTypePriceHistory = "catalog:price_history"
)

// PriceEntry is one product price observation.
type PriceEntry struct {
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
}

// PriceHistoryPayload describes a price-history enrichment run.
type PriceHistoryPayload struct {
	// BatchID correlates worker logs with the enqueueing request.
	BatchID string `json:"batchId"`
	// Source is products.SourceQuote or products.SourceVendor and selects
	// which price column the entries update.
	Source  string       `json:"source"`
	Entries []PriceEntry `json:"entries"`
}

// NewPriceHistoryTask constructs an Asynq task.
func NewPriceHistoryTask(payload PriceHistoryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePriceHistory, data), nil
}

// valid source guard shared by enqueue and handle paths.
func validSource(s string) bool {
	return s == products.SourceQuote || s == products.SourceVendor
}
