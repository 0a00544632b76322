package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/logging"
)

const (
	tcgplayerBaseURL = "https://api.tcgplayer.com/v1.39.0"
	tcgplayerTimeout = 10 * time.Second
)

// TCGPlayerSource fetches the official aggregator market price from the
// TCGplayer pricing API.
type TCGPlayerSource struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

// NewTCGPlayerSource creates a new TCGplayer source.
func NewTCGPlayerSource(config map[string]interface{}) (Adapter, error) {
	logger := GetLoggerFromConfig(config)

	apiKey := GetStringFromConfig(config, "api_key", "")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tcgplayer", ErrAPIKeyRequired)
	}

	timeout := GetDurationFromConfig(config, "timeout", tcgplayerTimeout)

	return &TCGPlayerSource{
		baseURL: GetStringFromConfig(config, "base_url", tcgplayerBaseURL),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Name returns the fixed source tag.
func (s *TCGPlayerSource) Name() Source {
	return SourceTCGPlayer
}

// Timeout returns the per-call time box.
func (s *TCGPlayerSource) Timeout() time.Duration {
	return s.timeout
}

// tcgplayerPricingResponse mirrors the pricing search payload.
type tcgplayerPricingResponse struct {
	Success bool `json:"success"`
	Results []struct {
		ProductID   int      `json:"productId"`
		MarketPrice *float64 `json:"marketPrice"`
		LowPrice    *float64 `json:"lowPrice"`
		SubTypeName string   `json:"subTypeName"`
	} `json:"results"`
}

// Query fetches the market and low price for the best matching product.
func (s *TCGPlayerSource) Query(ctx context.Context, card CardIdentity) (Quote, error) {
	if card.Name == "" {
		return Quote{}, fmt.Errorf("%w", ErrCardNameRequired)
	}

	url := fmt.Sprintf("%s/pricing/search?q=%s", s.baseURL, EncodeQuery(SearchQuery(card)))

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
		return Quote{}, fmt.Errorf("%w: tcgplayer", ErrRateLimitExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data tcgplayerPricingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if !data.Success || len(data.Results) == 0 {
		s.logger.Debug("No TCGplayer product match", "card", card.Name)
		return Quote{Source: SourceTCGPlayer, ObservedAt: time.Now()}, nil
	}

	// First result is the closest match.
	result := data.Results[0]

	quote := Quote{Source: SourceTCGPlayer, ObservedAt: time.Now()}
	if result.MarketPrice != nil && *result.MarketPrice > 0 {
		quote.Price = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*result.MarketPrice), Valid: true}
	}
	if result.LowPrice != nil && *result.LowPrice > 0 {
		quote.LowPrice = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*result.LowPrice), Valid: true}
	}

	return quote, nil
}

func init() {
	Register(SourceTCGPlayer, NewTCGPlayerSource)
}
