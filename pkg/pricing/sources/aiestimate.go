package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/logging"
)

const (
	// The estimator can be slow under load, so it gets a longer box
	// than the listing APIs.
	aiEstimateTimeout = 15 * time.Second
)

// AIEstimateSource asks a hosted estimator model for a price. It is the
// least trusted source: useful when listings are thin, never a primary
// signal when real market data is available.
type AIEstimateSource struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

// NewAIEstimateSource creates a new estimator source. base_url is
// required since there is no public default endpoint.
func NewAIEstimateSource(config map[string]interface{}) (Adapter, error) {
	logger := GetLoggerFromConfig(config)

	baseURL := GetStringFromConfig(config, "base_url", "")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: aiestimate requires base_url", ErrInvalidConfig)
	}

	timeout := GetDurationFromConfig(config, "timeout", aiEstimateTimeout)

	return &AIEstimateSource{
		baseURL: baseURL,
		apiKey:  GetStringFromConfig(config, "api_key", ""),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Name returns the fixed source tag.
func (s *AIEstimateSource) Name() Source {
	return SourceAIEstimate
}

// Timeout returns the per-call time box.
func (s *AIEstimateSource) Timeout() time.Duration {
	return s.timeout
}

type aiEstimateRequest struct {
	Name    string `json:"name"`
	Set     string `json:"set,omitempty"`
	Variant string `json:"variant,omitempty"`
	Grade   string `json:"grade,omitempty"`
}

type aiEstimateResponse struct {
	Estimate *float64 `json:"estimate"`
	Currency string   `json:"currency"`
}

// Query posts the card attributes to the estimator and returns its guess.
func (s *AIEstimateSource) Query(ctx context.Context, card CardIdentity) (Quote, error) {
	if card.Name == "" {
		return Quote{}, fmt.Errorf("%w", ErrCardNameRequired)
	}

	body, err := json.Marshal(aiEstimateRequest{
		Name:    card.Name,
		Set:     card.Set,
		Variant: card.Variant,
		Grade:   card.Grade,
	})
	if err != nil {
		return Quote{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/estimate", bytes.NewReader(body))
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Quote{}, fmt.Errorf("%w: aiestimate", ErrRateLimitExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data aiEstimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	quote := Quote{Source: SourceAIEstimate, ObservedAt: time.Now()}
	if data.Estimate != nil && *data.Estimate > 0 {
		quote.Price = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*data.Estimate), Valid: true}
	} else {
		s.logger.Debug("Estimator returned no estimate", "card", card.Name)
	}

	return quote, nil
}

func init() {
	Register(SourceAIEstimate, NewAIEstimateSource)
}
