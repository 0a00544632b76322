package sources

// Trust weights per source. eBay sold listings are independent real
// transaction data and anchor the table; the AI estimate is a heuristic
// and counts least. The selector and the lowest-listed fallback both
// consult this table rather than relying on slice ordering.
var sourceWeights = map[Source]float64{
	SourceEbay:       1.0,
	SourceTCGPlayer:  0.85,
	SourceCardmarket: 0.70,
	SourceAIEstimate: 0.40,
}

// priorityOrder lists sources from most to least trusted.
var priorityOrder = []Source{
	SourceEbay,
	SourceTCGPlayer,
	SourceCardmarket,
	SourceAIEstimate,
}

// Weight returns the fixed trust weight for a source. Unknown sources
// get zero weight so they never win arbitration.
func Weight(s Source) float64 {
	return sourceWeights[s]
}

// ByPriority returns the source tags ordered from most to least trusted.
func ByPriority() []Source {
	out := make([]Source, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}
