// File: dataprovider/coingecko/cgclient.go
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cointrack/dataprovider"
	utils "cointrack/utilities"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public CoinGecko v3 API address.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const (
	defaultTimeoutSec = 10
	defaultPageSize   = 50
	defaultChartDays  = 365
)

// APIError is returned for non-2xx provider responses so callers can inspect
// the status code (a 404 on /coins/{id} means the coin id is unknown).
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko: http %d on %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a CoinGecko REST client bound to a base URL. Every request is
// gated by a rate limiter and bounded by the configured timeout. The client
// performs no retries and no caching; both live in the surrounding layers.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *utils.Logger
	cfg     *utils.CoingeckoConfig
}

// NewClient builds a Client from AppConfig, defaulting any invalid values.
func NewClient(cfg *utils.AppConfig, logger *utils.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("coingecko client: AppConfig cannot be nil")
	}
	if logger == nil {
		logger = utils.NewLogger(utils.Info)
		logger.LogWarn("CoinGecko Client: Logger not provided, using default logger.")
	}

	cgCfg := cfg.Coingecko
	if cgCfg == nil {
		return nil, errors.New("coingecko client: CoingeckoConfig missing in AppConfig")
	}

	if cgCfg.BaseURL == "" {
		cgCfg.BaseURL = DefaultBaseURL
		logger.LogWarn("CoinGecko Client: BaseURL not set, defaulting to %s", DefaultBaseURL)
	}
	if cgCfg.QuoteCurrency == "" {
		cgCfg.QuoteCurrency = "usd"
	}
	if cgCfg.RequestTimeoutSec <= 0 {
		cgCfg.RequestTimeoutSec = defaultTimeoutSec
		logger.LogWarn("CoinGecko Client: Invalid RequestTimeoutSec, defaulting to %d seconds", defaultTimeoutSec)
	}
	if cgCfg.RateLimitPerSec <= 0 {
		cgCfg.RateLimitPerSec = 1.0
		logger.LogWarn("CoinGecko Client: Invalid RateLimitPerSec, defaulting to 1.0")
	}
	if cgCfg.RateLimitBurst <= 0 {
		cgCfg.RateLimitBurst = 1
		logger.LogWarn("CoinGecko Client: Invalid RateLimitBurst, defaulting to 1")
	}
	if cgCfg.MarketPageSize <= 0 {
		cgCfg.MarketPageSize = defaultPageSize
	}

	hc := resty.New().
		SetBaseURL(cgCfg.BaseURL).
		SetTimeout(time.Duration(cgCfg.RequestTimeoutSec) * time.Second).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "cointrack/1.0",
		})

	// Observe rate-limit responses. The hook only logs; the error path below
	// still sees the original response, so propagation to callers is unchanged.
	hc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() == http.StatusTooManyRequests {
			logger.LogWarn("CoinGecko Client: HTTP 429 rate limit hit on %s", resp.Request.URL)
		}
		return nil
	})

	client := &Client{
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cgCfg.RateLimitPerSec), cgCfg.RateLimitBurst),
		logger:  logger,
		cfg:     cgCfg,
	}

	logger.LogInfo("CoinGecko client initialized with URL: %s, RateLimit: %.2f req/sec", cgCfg.BaseURL, cgCfg.RateLimitPerSec)
	return client, nil
}

// get performs a rate-limited GET against endpoint and decodes the JSON body
// into result. Non-2xx responses become *APIError.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, result interface{}) error {
	if ctx == nil {
		c.logger.LogWarn("CoinGecko Client: get called with nil context for endpoint %s. Using background context.", endpoint)
		ctx = context.Background()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error for endpoint %s: %w", endpoint, err)
	}

	req := c.http.R().SetContext(ctx).SetResult(result)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if c.cfg.APIKey != "" {
		req.SetQueryParam("x_cg_demo_api_key", c.cfg.APIKey)
	}

	c.logger.LogDebug("CoinGecko Request: GET %s%s", c.cfg.BaseURL, endpoint)

	resp, err := req.Get(endpoint)
	if err != nil {
		return fmt.Errorf("request for %s failed: %w", endpoint, err)
	}
	if !resp.IsSuccess() {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Endpoint:   endpoint,
			Body:       bodySnippet(resp.Body()),
		}
	}
	return nil
}

func bodySnippet(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}

// GetMarketPage implements MarketDataProvider. It fetches one fixed-size page
// of coins ordered by market cap descending; the rows are already flat and
// returned unmodified.
func (c *Client) GetMarketPage(ctx context.Context, page int) ([]dataprovider.Coin, error) {
	if page < 1 {
		page = 1
	}

	var coins []dataprovider.Coin
	params := map[string]string{
		"vs_currency": strings.ToLower(c.cfg.QuoteCurrency),
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(c.cfg.MarketPageSize),
		"page":        strconv.Itoa(page),
		"sparkline":   "false",
		"locale":      "en",
	}

	if err := c.get(ctx, "/coins/markets", params, &coins); err != nil {
		return nil, fmt.Errorf("GetMarketPage %d failed: %w", page, err)
	}
	return coins, nil
}

// SearchCoins implements MarketDataProvider. Matching is the provider's
// case-insensitive substring search on name or symbol; this layer does not
// re-filter the results.
func (c *Client) SearchCoins(ctx context.Context, query string) (dataprovider.SearchResponse, error) {
	var resp dataprovider.SearchResponse
	params := map[string]string{"query": query}

	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return dataprovider.SearchResponse{}, fmt.Errorf("SearchCoins %q failed: %w", query, err)
	}
	return resp, nil
}

// GetCoinDetail implements MarketDataProvider. The provider's nested detail
// shape is piped through the response transformer; an unknown id surfaces the
// provider's 404 as an *APIError.
func (c *Client) GetCoinDetail(ctx context.Context, id string) (dataprovider.CoinDetail, error) {
	var raw cgCoinDetail
	params := map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"market_data":    "true",
		"community_data": "false",
		"developer_data": "false",
		"sparkline":      "false",
	}

	endpoint := fmt.Sprintf("/coins/%s", id)
	if err := c.get(ctx, endpoint, params, &raw); err != nil {
		return dataprovider.CoinDetail{}, fmt.Errorf("GetCoinDetail for %s failed: %w", id, err)
	}
	return transformCoinDetail(raw), nil
}

// GetCoinChart implements MarketDataProvider. It fetches the historical series
// for the given lookback window in days and returns it unmodified.
func (c *Client) GetCoinChart(ctx context.Context, id string, days int) (dataprovider.ChartData, error) {
	if days <= 0 {
		days = defaultChartDays
	}

	var chart dataprovider.ChartData
	params := map[string]string{
		"vs_currency": strings.ToLower(c.cfg.QuoteCurrency),
		"days":        strconv.Itoa(days),
	}

	endpoint := fmt.Sprintf("/coins/%s/market_chart", id)
	if err := c.get(ctx, endpoint, params, &chart); err != nil {
		return dataprovider.ChartData{}, fmt.Errorf("GetCoinChart for %s (%dd) failed: %w", id, days, err)
	}
	return chart, nil
}
