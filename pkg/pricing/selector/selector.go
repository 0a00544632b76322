// Package selector reconciles quotes from multiple sources into one
// trusted price with a confidence score. Select is pure and carries no
// state, so it is unit-testable in isolation.
package selector

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/sources"
)

const (
	// OutlierThreshold is the deviation from the median beyond which a
	// quote is flagged as an outlier.
	OutlierThreshold = 0.30
	// AgreementThreshold is the deviation within which the valid set is
	// considered to agree on a price.
	AgreementThreshold = 0.15
)

// Confidence score components.
const (
	countBonusPerSource  = 15
	countBonusCap        = 40
	agreementBonusMax    = 35.0
	agreementBonusSingle = 10
	weightBonusFactor    = 4.0
	weightBonusCap       = 10.0
)

// Result is the reconciled price for one card. Immutable once built;
// a later computation for the same card supersedes it rather than
// mutating it.
type Result struct {
	BestPrice     decimal.NullDecimal `json:"best_price"`
	LowestListed  decimal.NullDecimal `json:"lowest_listed"`
	Confidence    int                 `json:"confidence"`
	PrimarySource sources.Source      `json:"primary_source,omitempty"`
	Sources       []sources.Quote     `json:"sources"`
	IsStale       bool                `json:"is_stale"`
	LastUpdated   time.Time           `json:"last_updated"`
}

// HasPrice reports whether a best price was selected.
func (r Result) HasPrice() bool {
	return r.BestPrice.Valid
}

// Select reconciles the given quotes into a single price. Quotes with a
// null or non-positive price are kept in the output for transparency but
// never contribute to selection, and their outlier flag is left unset.
func Select(quotes []sources.Quote, now time.Time) Result {
	start := time.Now()

	// Work on a copy so the caller's slice is never mutated.
	all := make([]sources.Quote, len(quotes))
	copy(all, quotes)

	valid := make([]sources.Quote, 0, len(all))
	for _, q := range all {
		if q.HasPrice() {
			valid = append(valid, q)
		}
	}

	result := Result{
		Sources:      all,
		LowestListed: lowestListed(all),
		LastUpdated:  now,
	}

	if len(valid) == 0 {
		return result
	}

	median := medianPrice(valid)

	// Flag outliers on every priced quote against the valid-set median.
	for i := range all {
		if !all[i].HasPrice() {
			continue
		}
		if deviation(all[i].Price.Decimal, median) > OutlierThreshold {
			all[i].IsOutlier = true
			metrics.RecordOutlierFlag(string(all[i].Source))
		}
	}
	// The valid set aliases nothing in all, so re-derive flags there too.
	for i := range valid {
		valid[i].IsOutlier = deviation(valid[i].Price.Decimal, median) > OutlierThreshold
	}

	agrees := true
	for _, q := range valid {
		if deviation(q.Price.Decimal, median) > AgreementThreshold {
			agrees = false
			break
		}
	}

	var best decimal.Decimal
	var primary sources.Source

	if agrees && len(valid) >= 2 {
		best = median
		primary = highestWeighted(valid).Source
	} else {
		pool := make([]sources.Quote, 0, len(valid))
		for _, q := range valid {
			if !q.IsOutlier {
				pool = append(pool, q)
			}
		}
		if len(pool) == 0 {
			pool = valid
		}
		chosen := highestWeighted(pool)
		best = chosen.Price.Decimal
		primary = chosen.Source
	}

	result.BestPrice = decimal.NullDecimal{Decimal: best.Round(2), Valid: true}
	result.PrimarySource = primary
	result.Confidence = confidence(valid, now)

	metrics.RecordSelection(time.Since(start), result.Confidence)
	return result
}

// medianPrice returns the element at floor(n/2) of the ascending prices.
func medianPrice(valid []sources.Quote) decimal.Decimal {
	prices := make([]decimal.Decimal, len(valid))
	for i, q := range valid {
		prices[i] = q.Price.Decimal
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	return prices[len(prices)/2]
}

// deviation returns |price - median| / median as a float.
func deviation(price, median decimal.Decimal) float64 {
	if median.IsZero() {
		return 0
	}
	d, _ := price.Sub(median).Abs().Div(median).Float64()
	return d
}

// highestWeighted returns the quote from the most trusted source in the
// pool. Ties keep the first-seen quote, so input order is the tiebreak.
func highestWeighted(pool []sources.Quote) sources.Quote {
	chosen := pool[0]
	for _, q := range pool[1:] {
		if sources.Weight(q.Source) > sources.Weight(chosen.Source) {
			chosen = q
		}
	}
	return chosen
}

// confidence scores trust in the selected price from four components:
// how many sources responded, how tightly they agree, how fresh the
// newest observation is, and how much source trust weight is covered.
func confidence(valid []sources.Quote, now time.Time) int {
	countBonus := float64(len(valid) * countBonusPerSource)
	if countBonus > countBonusCap {
		countBonus = countBonusCap
	}

	var agreementBonus float64
	if len(valid) >= 2 {
		minP, maxP := valid[0].Price.Decimal, valid[0].Price.Decimal
		for _, q := range valid[1:] {
			if q.Price.Decimal.LessThan(minP) {
				minP = q.Price.Decimal
			}
			if q.Price.Decimal.GreaterThan(maxP) {
				maxP = q.Price.Decimal
			}
		}
		spread, _ := maxP.Sub(minP).Div(maxP).Float64()
		agreementBonus = (1 - 2*spread) * agreementBonusMax
		if agreementBonus < 0 {
			agreementBonus = 0
		}
	} else {
		agreementBonus = agreementBonusSingle
	}

	var newest time.Time
	for _, q := range valid {
		if q.ObservedAt.After(newest) {
			newest = q.ObservedAt
		}
	}
	age := now.Sub(newest)
	var recencyBonus float64
	switch {
	case age < time.Hour:
		recencyBonus = 15
	case age < 24*time.Hour:
		recencyBonus = 10
	case age < 168*time.Hour:
		recencyBonus = 5
	}

	var weightSum float64
	for _, q := range valid {
		weightSum += sources.Weight(q.Source)
	}
	weightBonus := weightSum * weightBonusFactor
	if weightBonus > weightBonusCap {
		weightBonus = weightBonusCap
	}

	score := int(math.Round(countBonus + agreementBonus + recencyBonus + weightBonus))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// lowestListed returns the first non-null low price in source priority
// order, so a reordered input slice cannot change which listing wins.
func lowestListed(all []sources.Quote) decimal.NullDecimal {
	for _, src := range sources.ByPriority() {
		for _, q := range all {
			if q.Source == src && q.LowPrice.Valid {
				return q.LowPrice
			}
		}
	}
	return decimal.NullDecimal{}
}
