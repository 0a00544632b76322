package sources

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		source Source
		want   float64
	}{
		{SourceEbay, 1.0},
		{SourceTCGPlayer, 0.85},
		{SourceCardmarket, 0.70},
		{SourceAIEstimate, 0.40},
		{Source("unknown"), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Weight(tt.source), "weight of %s", tt.source)
	}
}

func TestByPriority(t *testing.T) {
	order := ByPriority()
	require.Equal(t, []Source{SourceEbay, SourceTCGPlayer, SourceCardmarket, SourceAIEstimate}, order)

	// Mutating the returned slice must not affect later calls.
	order[0] = SourceAIEstimate
	assert.Equal(t, SourceEbay, ByPriority()[0])
}

func TestQuoteHasPrice(t *testing.T) {
	assert.False(t, Quote{}.HasPrice())
	assert.False(t, Quote{Price: decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}}.HasPrice())
	assert.False(t, Quote{Price: decimal.NullDecimal{Decimal: decimal.RequireFromString("-1"), Valid: true}}.HasPrice())
	assert.True(t, Quote{Price: decimal.NullDecimal{Decimal: decimal.RequireFromString("0.01"), Valid: true}}.HasPrice())
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name string
		card CardIdentity
		want string
	}{
		{
			name: "all attributes",
			card: CardIdentity{Name: "Charizard", Set: "Base Set", Variant: "Holo", Grade: "PSA 9"},
			want: "Charizard Base Set Holo PSA 9",
		},
		{
			name: "name only",
			card: CardIdentity{Name: "Pikachu"},
			want: "Pikachu",
		},
		{
			name: "empty parts dropped",
			card: CardIdentity{Name: "Blastoise", Grade: "BGS 8.5"},
			want: "Blastoise BGS 8.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchQuery(tt.card))
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	assert.Equal(t, "Charizard+Base+Set", EncodeQuery("Charizard Base Set"))
}

func TestGetStringFromConfig(t *testing.T) {
	config := map[string]interface{}{
		"present": "value",
		"empty":   "",
		"number":  42,
	}

	assert.Equal(t, "value", GetStringFromConfig(config, "present", "fallback"))
	assert.Equal(t, "fallback", GetStringFromConfig(config, "empty", "fallback"))
	assert.Equal(t, "fallback", GetStringFromConfig(config, "number", "fallback"))
	assert.Equal(t, "fallback", GetStringFromConfig(config, "missing", "fallback"))
}

func TestGetDurationFromConfig(t *testing.T) {
	config := map[string]interface{}{
		"valid":    "30s",
		"garbage":  "soon",
		"negative": "-5s",
	}

	assert.Equal(t, 30*time.Second, GetDurationFromConfig(config, "valid", time.Minute))
	assert.Equal(t, time.Minute, GetDurationFromConfig(config, "garbage", time.Minute))
	assert.Equal(t, time.Minute, GetDurationFromConfig(config, "negative", time.Minute))
	assert.Equal(t, time.Minute, GetDurationFromConfig(config, "missing", time.Minute))
}

func TestGetLoggerFromConfig(t *testing.T) {
	assert.NotNil(t, GetLoggerFromConfig(nil))
	assert.NotNil(t, GetLoggerFromConfig(map[string]interface{}{"logger": "not a logger"}))
}

func TestRegistryListsBuiltinSources(t *testing.T) {
	names := List()
	assert.Contains(t, names, SourceEbay)
	assert.Contains(t, names, SourceTCGPlayer)
	assert.Contains(t, names, SourceCardmarket)
	assert.Contains(t, names, SourceAIEstimate)
}

func TestCreateUnknownSource(t *testing.T) {
	_, err := Create(Source("bogus"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestCreateRequiresCredentials(t *testing.T) {
	_, err := Create(SourceEbay, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	_, err = Create(SourceTCGPlayer, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	_, err = Create(SourceAIEstimate, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Cardmarket works unauthenticated.
	adapter, err := Create(SourceCardmarket, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, SourceCardmarket, adapter.Name())
}
