// Package sources provides price source adapters for collectible cards.
package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies one external price provider.
type Source string

const (
	// SourceEbay provides sold-listing transaction data.
	SourceEbay Source = "ebay"
	// SourceTCGPlayer provides the official aggregator market price.
	SourceTCGPlayer Source = "tcgplayer"
	// SourceCardmarket provides a general aggregator trend price.
	SourceCardmarket Source = "cardmarket"
	// SourceAIEstimate provides a heuristic model estimate.
	SourceAIEstimate Source = "aiestimate"
)

// CardIdentity carries the attributes adapters need to look up a card.
type CardIdentity struct {
	Name    string
	Set     string
	Variant string
	Grade   string // e.g. "PSA 10", empty for raw cards
}

// Quote is one source's price observation for one card at one point in time.
// Price and LowPrice are null when the source was reachable but had no match.
type Quote struct {
	Source     Source              `json:"source"`
	Price      decimal.NullDecimal `json:"price"`
	LowPrice   decimal.NullDecimal `json:"low_price"`
	ObservedAt time.Time           `json:"observed_at"`
	IsOutlier  bool                `json:"is_outlier"`
}

// HasPrice reports whether the quote carries a usable (positive) price.
func (q Quote) HasPrice() bool {
	return q.Price.Valid && q.Price.Decimal.IsPositive()
}

// Adapter defines the interface that all price source adapters implement.
// Query failures are expected and non-fatal; a failed adapter simply
// contributes no quote to the aggregation.
type Adapter interface {
	// Name returns the fixed source tag of this adapter.
	Name() Source

	// Query fetches a quote for the given card identity. It must honor
	// ctx cancellation and return within Timeout().
	Query(ctx context.Context, card CardIdentity) (Quote, error)

	// Timeout returns the per-call time box for this adapter.
	Timeout() time.Duration
}

// Factory is a function that creates a new Adapter instance.
type Factory func(config map[string]interface{}) (Adapter, error)
