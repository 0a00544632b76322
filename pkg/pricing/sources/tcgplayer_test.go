package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTCGPlayerForTest(t *testing.T, handler http.HandlerFunc) Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewTCGPlayerSource(map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return adapter
}

func TestTCGPlayerQuery_MarketAndLowPrice(t *testing.T) {
	adapter := newTCGPlayerForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pricing/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"success": true,
			"results": [
				{"productId": 521, "marketPrice": 104.99, "lowPrice": 89.99, "subTypeName": "Holofoil"},
				{"productId": 999, "marketPrice": 2.00, "lowPrice": 1.00, "subTypeName": "Normal"}
			]
		}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})

	require.NoError(t, err)
	require.True(t, quote.HasPrice())
	assert.Equal(t, "104.99", quote.Price.Decimal.String())
	require.True(t, quote.LowPrice.Valid)
	assert.Equal(t, "89.99", quote.LowPrice.Decimal.String())
}

func TestTCGPlayerQuery_NoMatchIsNullQuote(t *testing.T) {
	adapter := newTCGPlayerForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "results": []}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
	assert.False(t, quote.LowPrice.Valid)
}

func TestTCGPlayerQuery_MissingMarketPriceKeepsLow(t *testing.T) {
	adapter := newTCGPlayerForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"success": true,
			"results": [{"productId": 521, "lowPrice": 12.50}]
		}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
	require.True(t, quote.LowPrice.Valid)
	assert.Equal(t, "12.5", quote.LowPrice.Decimal.String())
}

func TestTCGPlayerQuery_MalformedResponse(t *testing.T) {
	adapter := newTCGPlayerForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
