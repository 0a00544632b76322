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
	cardmarketBaseURL = "https://api.cardmarket.com/ws/v2.0/output.json"
	cardmarketTimeout = 10 * time.Second
)

// CardmarketSource fetches the trend price from the Cardmarket price
// guide, a general aggregator over European listings.
type CardmarketSource struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

// NewCardmarketSource creates a new Cardmarket source.
func NewCardmarketSource(config map[string]interface{}) (Adapter, error) {
	logger := GetLoggerFromConfig(config)

	timeout := GetDurationFromConfig(config, "timeout", cardmarketTimeout)

	return &CardmarketSource{
		baseURL: GetStringFromConfig(config, "base_url", cardmarketBaseURL),
		token:   GetStringFromConfig(config, "api_key", ""),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Name returns the fixed source tag.
func (s *CardmarketSource) Name() Source {
	return SourceCardmarket
}

// Timeout returns the per-call time box.
func (s *CardmarketSource) Timeout() time.Duration {
	return s.timeout
}

// cardmarketFindResponse mirrors the products/find payload.
type cardmarketFindResponse struct {
	Products []struct {
		IDProduct  int `json:"idProduct"`
		PriceGuide struct {
			Trend *float64 `json:"TREND"`
			Low   *float64 `json:"LOW"`
		} `json:"priceGuide"`
	} `json:"product"`
}

// Query fetches the trend and low price for the best matching product.
func (s *CardmarketSource) Query(ctx context.Context, card CardIdentity) (Quote, error) {
	if card.Name == "" {
		return Quote{}, fmt.Errorf("%w", ErrCardNameRequired)
	}

	url := fmt.Sprintf("%s/products/find?search=%s", s.baseURL, EncodeQuery(SearchQuery(card)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Cardmarket returns 204 when the search matched nothing.
	if resp.StatusCode == http.StatusNoContent {
		s.logger.Debug("No Cardmarket product match", "card", card.Name)
		return Quote{Source: SourceCardmarket, ObservedAt: time.Now()}, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Quote{}, fmt.Errorf("%w: cardmarket", ErrRateLimitExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data cardmarketFindResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(data.Products) == 0 {
		s.logger.Debug("No Cardmarket product match", "card", card.Name)
		return Quote{Source: SourceCardmarket, ObservedAt: time.Now()}, nil
	}

	guide := data.Products[0].PriceGuide

	quote := Quote{Source: SourceCardmarket, ObservedAt: time.Now()}
	if guide.Trend != nil && *guide.Trend > 0 {
		quote.Price = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*guide.Trend), Valid: true}
	}
	if guide.Low != nil && *guide.Low > 0 {
		quote.LowPrice = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*guide.Low), Valid: true}
	}

	return quote, nil
}

func init() {
	Register(SourceCardmarket, NewCardmarketSource)
}
