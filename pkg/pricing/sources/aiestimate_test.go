package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIEstimateForTest(t *testing.T, handler http.HandlerFunc) Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewAIEstimateSource(map[string]interface{}{
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return adapter
}

func TestAIEstimateQuery_PostsCardAttributes(t *testing.T) {
	adapter := newAIEstimateForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/estimate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Charizard", body["name"])
		assert.Equal(t, "Base Set", body["set"])
		assert.Equal(t, "PSA 9", body["grade"])

		_, _ = w.Write([]byte(`{"estimate": 87.25, "currency": "USD"}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard", Set: "Base Set", Grade: "PSA 9"})

	require.NoError(t, err)
	require.True(t, quote.HasPrice())
	assert.Equal(t, "87.25", quote.Price.Decimal.String())
	assert.Equal(t, SourceAIEstimate, quote.Source)
}

func TestAIEstimateQuery_NoEstimateIsNullQuote(t *testing.T) {
	adapter := newAIEstimateForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"estimate": null}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
}

func TestAIEstimateQuery_ZeroEstimateIsNullQuote(t *testing.T) {
	adapter := newAIEstimateForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"estimate": 0}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
}

func TestNewAIEstimateSource_RequiresBaseURL(t *testing.T) {
	_, err := NewAIEstimateSource(map[string]interface{}{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
