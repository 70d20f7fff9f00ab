package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tradesphere/tradesphere-crm/internal/jobs"
	"github.com/tradesphere/tradesphere-crm/internal/masterdata/products"
)

// PriceHistoryJob upserts last-known product prices.
type PriceHistoryJob struct {
	Products products.Repository
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewPriceHistoryJob initialises the price-history handler. Metrics may be
// nil.
func NewPriceHistoryJob(repo products.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *PriceHistoryJob {
	return &PriceHistoryJob{Products: repo, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypePriceHistory tasks. A bad payload is dropped
// rather than retried; individual upsert failures are logged and skipped so
// one bad row never poisons the batch.
func (j *PriceHistoryJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.Metrics.Track("price_history")
	return tracker.End(j.handle(ctx, t))
}

func (j *PriceHistoryJob) handle(ctx context.Context, t *asynq.Task) error {
	var payload PriceHistoryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if !validSource(payload.Source) {
		return asynq.SkipRetry
	}

	var failed int
	for _, entry := range payload.Entries {
		if entry.ProductName == "" {
			continue
		}
		var err error
		switch payload.Source {
		case products.SourceQuote:
			err = j.Products.UpsertQuotePrice(ctx, entry.ProductName, entry.Price)
		case products.SourceVendor:
			err = j.Products.UpsertVendorPrice(ctx, entry.ProductName, entry.Price)
		}
		if err != nil {
			failed++
			j.Logger.Warn("price history upsert failed",
				slog.String("batch", payload.BatchID),
				slog.String("product", entry.ProductName),
				slog.Any("error", err),
			)
		}
	}

	if failed == len(payload.Entries) && failed > 0 {
		return fmt.Errorf("price history: all %d upserts failed", failed)
	}
	return nil
}
