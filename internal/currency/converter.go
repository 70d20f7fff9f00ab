// Package currency centralizes foreign-exchange conversion. Every path that
// needs a rate goes through the one Converter so the fallback policy is
// applied uniformly: fresh cache, then the external provider, then the
// last-known cached rate. A conversion with no rate available at all fails
// loudly instead of producing an undefined amount.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	xcurrency "golang.org/x/text/currency"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// Converter resolves exchange rates against an open.er-api.com style
// provider, caching them in Redis.
type Converter struct {
	client   *http.Client
	cache    *redis.Client
	apiURL   string
	base     string
	cacheTTL time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// Options configures a Converter.
type Options struct {
	APIURL   string
	Base     string
	CacheTTL time.Duration
	Client   *http.Client
}

// NewConverter constructs a Converter.
func NewConverter(cache *redis.Client, logger *slog.Logger, opts Options) *Converter {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Converter{
		client:   client,
		cache:    cache,
		apiURL:   strings.TrimRight(opts.APIURL, "/"),
		base:     opts.Base,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// Base returns the base currency code all sales figures accumulate in.
func (c *Converter) Base() string {
	return c.base
}

// ValidateCode checks a currency code against ISO 4217.
func ValidateCode(code string) error {
	if _, err := xcurrency.ParseISO(code); err != nil {
		return fmt.Errorf("%w: unknown currency %q", httpx.ErrValidation, code)
	}
	return nil
}

// Rate returns the from→to exchange rate.
func (c *Converter) Rate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	if rate, ok := c.cachedRate(ctx, freshKey(from, to)); ok {
		return rate, nil
	}

	// Concurrent requests for the same pair share one provider call.
	v, err, _ := c.group.Do(freshKey(from, to), func() (any, error) {
		rate, err := c.fetchRate(ctx, from, to)
		if err != nil {
			return 0.0, err
		}
		c.storeRate(ctx, from, to, rate)
		return rate, nil
	})
	if err == nil {
		return v.(float64), nil
	}

	// Provider down: fall back to the last-known rate rather than
	// corrupting totals with an undefined conversion.
	if rate, ok := c.cachedRate(ctx, lastKnownKey(from, to)); ok {
		c.logger.Warn("exchange rate provider unavailable, using last-known rate",
			slog.String("from", from),
			slog.String("to", to),
			slog.Any("error", err),
		)
		return rate, nil
	}

	return 0, fmt.Errorf("%w: exchange rate %s/%s: %v", httpx.ErrExternal, from, to, err)
}

// Convert converts amount from one currency to another.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// ToBase converts amount into the configured base currency.
func (c *Converter) ToBase(ctx context.Context, amount float64, from string) (float64, error) {
	return c.Convert(ctx, amount, from, c.base)
}

type providerResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *Converter) fetchRate(ctx context.Context, from, to string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/"+from, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("provider status %d", resp.StatusCode)
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}

	rate, ok := payload.Rates[to]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("provider has no rate for %s", to)
	}
	return rate, nil
}

func (c *Converter) cachedRate(ctx context.Context, key string) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}
	rate, err := c.cache.Get(ctx, key).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("rate cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return 0, false
	}
	return rate, rate > 0
}

func (c *Converter) storeRate(ctx context.Context, from, to string, rate float64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, freshKey(from, to), rate, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("rate cache write failed", slog.Any("error", err))
	}
	// Last-known copy never expires; it is the provider-outage fallback.
	if err := c.cache.Set(ctx, lastKnownKey(from, to), rate, 0).Err(); err != nil {
		c.logger.Warn("rate cache write failed", slog.Any("error", err))
	}
}

func freshKey(from, to string) string {
	return "fx:rate:" + from + ":" + to
}

func lastKnownKey(from, to string) string {
	return "fx:last:" + from + ":" + to
}
