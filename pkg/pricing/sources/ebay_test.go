package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEbayForTest(t *testing.T, handler http.HandlerFunc) Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewEbaySource(map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return adapter
}

func TestEbayQuery_MedianOfSales(t *testing.T) {
	adapter := newEbayForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item_sales/search", r.URL.Path)
		assert.Equal(t, "Charizard Base Set", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 3,
			"itemSales": [
				{"lastSoldPrice": {"value": "120.00", "currency": "USD"}},
				{"lastSoldPrice": {"value": "95.50", "currency": "USD"}},
				{"lastSoldPrice": {"value": "110.00", "currency": "USD"}}
			]
		}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard", Set: "Base Set"})

	require.NoError(t, err)
	require.True(t, quote.HasPrice())
	assert.Equal(t, "110", quote.Price.Decimal.String())
	assert.Equal(t, SourceEbay, quote.Source)
}

func TestEbayQuery_SkipsForeignCurrencyAndGarbage(t *testing.T) {
	adapter := newEbayForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"itemSales": [
				{"lastSoldPrice": {"value": "90.00", "currency": "EUR"}},
				{"lastSoldPrice": {"value": "not-a-number", "currency": "USD"}},
				{"lastSoldPrice": {"value": "50.00", "currency": "USD"}}
			]
		}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})

	require.NoError(t, err)
	require.True(t, quote.HasPrice())
	assert.Equal(t, "50", quote.Price.Decimal.String())
}

func TestEbayQuery_NoSalesIsNullQuote(t *testing.T) {
	adapter := newEbayForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0, "itemSales": []}`))
	})

	quote, err := adapter.Query(context.Background(), CardIdentity{Name: "Obscure Promo"})

	require.NoError(t, err)
	assert.False(t, quote.HasPrice())
	assert.Equal(t, SourceEbay, quote.Source)
	assert.False(t, quote.ObservedAt.IsZero())
}

func TestEbayQuery_RateLimited(t *testing.T) {
	adapter := newEbayForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestEbayQuery_UnexpectedStatus(t *testing.T) {
	adapter := newEbayForTest(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := adapter.Query(context.Background(), CardIdentity{Name: "Charizard"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestEbayQuery_RequiresCardName(t *testing.T) {
	adapter := newEbayForTest(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := adapter.Query(context.Background(), CardIdentity{})
	assert.ErrorIs(t, err, ErrCardNameRequired)
}
