package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/logging"
)

const (
	ebayBaseURL = "https://api.ebay.com/buy/marketplace_insights/v1_beta"
	ebayTimeout = 10 * time.Second

	// ebayMaxSales caps how many recent sales we consider per lookup.
	ebayMaxSales = 25
)

// EbaySource fetches recent sold-listing prices from the eBay
// Marketplace Insights API. The reported price is the median of recent
// sales, which makes this the only source backed by real transactions.
type EbaySource struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

// NewEbaySource creates a new eBay sold-listings source.
func NewEbaySource(config map[string]interface{}) (Adapter, error) {
	logger := GetLoggerFromConfig(config)

	apiKey := GetStringFromConfig(config, "api_key", "")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ebay", ErrAPIKeyRequired)
	}

	timeout := GetDurationFromConfig(config, "timeout", ebayTimeout)

	return &EbaySource{
		baseURL: GetStringFromConfig(config, "base_url", ebayBaseURL),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Name returns the fixed source tag.
func (s *EbaySource) Name() Source {
	return SourceEbay
}

// Timeout returns the per-call time box.
func (s *EbaySource) Timeout() time.Duration {
	return s.timeout
}

// ebaySalesResponse mirrors the item_sales search payload.
type ebaySalesResponse struct {
	Total     int `json:"total"`
	ItemSales []struct {
		LastSoldPrice struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"lastSoldPrice"`
	} `json:"itemSales"`
}

// Query fetches recent sold prices for the card and reports their median.
func (s *EbaySource) Query(ctx context.Context, card CardIdentity) (Quote, error) {
	if card.Name == "" {
		return Quote{}, fmt.Errorf("%w", ErrCardNameRequired)
	}

	url := fmt.Sprintf("%s/item_sales/search?q=%s&limit=%d",
		s.baseURL, EncodeQuery(SearchQuery(card)), ebayMaxSales)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Quote{}, fmt.Errorf("%w: ebay", ErrRateLimitExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data ebaySalesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	prices := make([]decimal.Decimal, 0, len(data.ItemSales))
	for _, sale := range data.ItemSales {
		if sale.LastSoldPrice.Currency != "" && sale.LastSoldPrice.Currency != "USD" {
			continue
		}
		p, err := decimal.NewFromString(sale.LastSoldPrice.Value)
		if err != nil || !p.IsPositive() {
			continue
		}
		prices = append(prices, p)
	}

	// Reachable but no usable sales: a null quote, not an error.
	if len(prices) == 0 {
		s.logger.Debug("No recent sales found", "card", card.Name)
		return Quote{Source: SourceEbay, ObservedAt: time.Now()}, nil
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	median := prices[len(prices)/2]

	return Quote{
		Source:     SourceEbay,
		Price:      decimal.NullDecimal{Decimal: median, Valid: true},
		ObservedAt: time.Now(),
	}, nil
}

func init() {
	Register(SourceEbay, NewEbaySource)
}
