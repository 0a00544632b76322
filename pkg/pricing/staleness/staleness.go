// Package staleness classifies how old an item's last price is, for
// display purposes.
package staleness

import "time"

// Level is a display classification of price age.
type Level string

const (
	// Fresh means the price was updated within the last week.
	Fresh Level = "fresh"
	// Stale means the price is older than a week.
	Stale Level = "stale"
	// Outdated means the price is older than 30 days, or was never set.
	Outdated Level = "outdated"
)

const (
	staleAfter    = 7 * 24 * time.Hour
	outdatedAfter = 30 * 24 * time.Hour
)

// Classify buckets a last-updated timestamp relative to now. A zero
// timestamp means the price was never computed. Exact boundary ages
// resolve to the lower bucket; only strictly older prices move up.
func Classify(lastUpdated, now time.Time) Level {
	if lastUpdated.IsZero() {
		return Outdated
	}

	age := now.Sub(lastUpdated)
	switch {
	case age > outdatedAfter:
		return Outdated
	case age > staleAfter:
		return Stale
	default:
		return Fresh
	}
}
