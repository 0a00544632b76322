package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCardmarketForTest(t *testing.T, handler http.HandlerFunc) Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewCardmarketSource(map[string]interface{}{
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return adapter
}

func TestCardmarketQuery_TrendAndLowPrice(t *testing.T) {
	adapter := newCardmarketForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/find", r.URL.Path)
		assert.Equal(t, "Charizard Base Set", r.URL.Query().Get("search"))
		assert.Empty(t, r.Header.Get("Authorization"), "no token configured")

		_, _ = w.Write([]byte(`{
			"product": [
				{"idProduct": 1234, "priceGuide": {"TREND": 98.50, "LOW": 75.00}}
			]
		}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard", Set: "Base Set"})

	require.NoError(t, err)
	require.True(t, quote.HasPrice())
	assert.Equal(t, "98.5", quote.Price.Decimal.String())
	require.True(t, quote.LowPrice.Valid)
	assert.Equal(t, "75", quote.LowPrice.Decimal.String())
}

func TestCardmarketQuery_NoContentIsNullQuote(t *testing.T) {
	adapter := newCardmarketForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
	assert.Equal(t, SourceCardmarket, quote.Source)
}

func TestCardmarketQuery_EmptyProductListIsNullQuote(t *testing.T) {
	adapter := newCardmarketForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"product": []}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
}

func TestCardmarketQuery_SendsTokenWhenConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cm-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	adapter, err := NewCardmarketSource(map[string]interface{}{
		"base_url": server.URL,
		"api_key":  "cm-token",
	})
	require.NoError(t, err)

	_, err = adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})
	require.NoError(t, err)
}
