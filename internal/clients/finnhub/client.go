// Package finnhub provides a client for the Finnhub API with a Yahoo
// Finance chart-API fallback for quotes.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultBaseURL     = "https://finnhub.io/api/v1"
	DefaultFallbackURL = "https://query1.finance.yahoo.com"
	DefaultTimeout     = 10 * time.Second
	DefaultRateLimit   = 1 // requests per second
	maxSearchResults   = 10
)

// Client implements the StockClient interface
type Client struct {
	baseURL     string
	fallbackURL string
	apiKey      string
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithFallbackURL sets the Yahoo fallback base URL
func WithFallbackURL(fallbackURL string) ClientOption {
	return func(c *Client) {
		c.fallbackURL = fallbackURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		fallbackURL: DefaultFallbackURL,
		apiKey:      apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET against the Finnhub API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// searchResponse represents the Finnhub symbol lookup response
type searchResponse struct {
	Result []struct {
		Symbol        string `json:"symbol"`
		Description   string `json:"description"`
		Type          string `json:"type"`
		DisplaySymbol string `json:"displaySymbol"`
	} `json:"result"`
}

// Search returns symbols matching a free-text query. On API failure the
// static popular-symbol list serves as a search-only fallback.
func (c *Client) Search(ctx context.Context, query string) ([]models.AssetSearchResult, error) {
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("Symbol search failed, using fallback list")
		return FallbackSymbols(query), nil
	}

	hits := resp.Result
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}

	results := make([]models.AssetSearchResult, len(hits))
	for i, hit := range hits {
		assetType := models.AssetTypeStock
		if hit.Type == "ETP" {
			assetType = models.AssetTypeETF
		}
		name := hit.Description
		if name == "" {
			name = hit.Symbol
		}
		results[i] = models.AssetSearchResult{
			Symbol:   hit.Symbol,
			Name:     name,
			Type:     assetType,
			Exchange: hit.DisplaySymbol,
		}
	}

	return results, nil
}

// quoteResponse represents the Finnhub quote response ("c" is current price).
type quoteResponse struct {
	Current float64 `json:"c"`
}

// GetQuote returns the current USD price for a symbol. A missing or
// non-positive Finnhub quote falls through to the Yahoo chart API.
func (c *Client) GetQuote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp quoteResponse
	if err := c.get(ctx, "/quote", params, &resp); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Finnhub quote failed, trying fallback")
		return c.getQuoteFallback(ctx, symbol)
	}

	if resp.Current > 0 {
		return resp.Current, nil
	}

	return c.getQuoteFallback(ctx, symbol)
}

// chartResponse represents the Yahoo chart API response shape.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// getQuoteFallback fetches a quote from the Yahoo chart API.
func (c *Client) getQuoteFallback(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.fallbackURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo fallback quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: "fallback quote failed", Endpoint: "/v8/finance/chart"}
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chart.Chart.Result) == 0 || chart.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("no market price for symbol '%s'", symbol)
	}

	return chart.Chart.Result[0].Meta.RegularMarketPrice, nil
}

var _ interfaces.StockClient = (*Client)(nil)
