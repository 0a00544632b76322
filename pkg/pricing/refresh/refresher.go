package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/cache"
	"github.com/cardledger/pricefeed-go/pkg/pricing/selector"
	"github.com/cardledger/pricefeed-go/pkg/pricing/sources"
)

// Refresher computes a fresh aggregated price for one item: fan out to
// every adapter, reconcile the quotes, cache the result, write it back.
type Refresher struct {
	adapters []sources.Adapter
	cache    *cache.Cache
	gateway  PersistenceGateway
	history  HistorySink
	logger   *logging.Logger
	now      func() time.Time
}

// NewRefresher creates a refresher. The adapter slice order is the
// tiebreak order the selector sees, so callers should pass adapters in
// trust-priority order. history may be nil.
func NewRefresher(adapters []sources.Adapter, resultCache *cache.Cache, gateway PersistenceGateway, history HistorySink, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Refresher{
		adapters: adapters,
		cache:    resultCache,
		gateway:  gateway,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the refresher's clock. Tests only.
func (r *Refresher) SetClock(now func() time.Time) {
	r.now = now
}

// Refresh returns the current price result for an item. Without force a
// live cache entry short-circuits the whole fetch. A nil result with a
// nil error means no source had a usable quote. A non-nil error means
// the price was computed and cached but could not be persisted.
func (r *Refresher) Refresh(ctx context.Context, item Item, force bool) (*selector.Result, error) {
	key := item.ID.String()

	if !force {
		if entry, ok := r.cache.Get(key); ok {
			result := entry.Result
			return &result, nil
		}
	}

	quotes := r.collectQuotes(ctx, item)
	result := selector.Select(quotes, r.now())

	if !result.HasPrice() {
		r.logger.Debug("No usable quotes for item", "item", item.Name, "quotes", len(quotes))
		return nil, nil
	}

	r.cache.Set(key, result)

	err := r.gateway.WritePrice(ctx, item.ID, result.BestPrice, result.LowestListed, result.LastUpdated)
	metrics.RecordPersistenceWrite(err)
	if err != nil {
		// The cache keeps the computed price; a later read may
		// re-attempt persistence.
		return &result, fmt.Errorf("persist price: %w", err)
	}

	if r.history != nil {
		if err := r.history.Record(ctx, item.ID, result.BestPrice.Decimal, result.LastUpdated); err != nil {
			r.logger.Debug("Failed to record price history", "item", item.Name, "error", err)
		}
	}

	return &result, nil
}

// collectQuotes calls every adapter concurrently under its own timeout
// and returns whatever arrived, in adapter registration order. A slow or
// failing adapter contributes nothing and delays nothing beyond its own
// time box.
func (r *Refresher) collectQuotes(ctx context.Context, item Item) []sources.Quote {
	identity := item.Identity()
	collected := make([]*sources.Quote, len(r.adapters))

	var wg sync.WaitGroup
	for i, adapter := range r.adapters {
		wg.Add(1)
		go func(i int, adapter sources.Adapter) {
			defer wg.Done()

			start := time.Now()
			fetchCtx, cancel := context.WithTimeout(ctx, adapter.Timeout())
			defer cancel()

			quote, err := adapter.Query(fetchCtx, identity)
			if err != nil {
				metrics.RecordQuoteFetch(string(adapter.Name()), "error", time.Since(start))
				r.logger.Debug("Source query failed",
					"source", adapter.Name(),
					"item", item.Name,
					"error", err)
				return
			}

			metrics.RecordQuoteFetch(string(adapter.Name()), "ok", time.Since(start))
			collected[i] = &quote
		}(i, adapter)
	}
	wg.Wait()

	quotes := make([]sources.Quote, 0, len(collected))
	for _, q := range collected {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}
