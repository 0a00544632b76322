// Package refresh orchestrates price refreshes for single items and
// whole inventories.
package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/pricing/sources"
)

// Item is the engine's read-only view of an inventory item. Only the
// identifying attributes and the last price update are read; everything
// else stays with the inventory store.
type Item struct {
	ID              uuid.UUID
	Name            string
	Set             string
	Variant         string
	Grade           string
	LastPriceUpdate time.Time
}

// Identity returns the attributes adapters use to look the card up.
func (i Item) Identity() sources.CardIdentity {
	return sources.CardIdentity{
		Name:    i.Name,
		Set:     i.Set,
		Variant: i.Variant,
		Grade:   i.Grade,
	}
}

// PersistenceGateway writes computed prices back to the inventory store.
type PersistenceGateway interface {
	WritePrice(ctx context.Context, itemID uuid.UUID, bestPrice, lowestListed decimal.NullDecimal, observedAt time.Time) error
}

// HistorySink records price samples for sparkline history. Failures are
// swallowed by callers; recording is fire-and-continue.
type HistorySink interface {
	Record(ctx context.Context, itemID uuid.UUID, price decimal.Decimal, observedAt time.Time) error
}

// ProgressFunc is invoked after each item is dispatched during a batch
// refresh. It runs on the orchestrator goroutine and must return quickly.
type ProgressFunc func(current, total int, itemName string)

// Summary accounts for one batch invocation. It is created per call,
// mutated only during that call, and returned by value.
type Summary struct {
	Total    int                    `json:"total"`
	Success  int                    `json:"success"`
	Failed   int                    `json:"failed"`
	Skipped  int                    `json:"skipped"`
	BySource map[sources.Source]int `json:"by_source"`
}

// NewSummary returns an empty summary for the given item count.
func NewSummary(total int) Summary {
	return Summary{
		Total:    total,
		BySource: make(map[sources.Source]int),
	}
}
