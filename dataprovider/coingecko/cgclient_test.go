package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	utils "cointrack/utilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	ID     string
	Name   string
	Symbol string
}

var searchFixtures = []searchFixture{
	{"bitcoin", "Bitcoin", "btc"},
	{"bitcoin-cash", "Bitcoin Cash", "bch"},
	{"ethereum", "Ethereum", "eth"},
}

// newTestServer emulates the provider endpoints the client touches and
// records the query values of every request.
func newTestServer(t *testing.T) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var seen []url.Values

	asJSON := func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		asJSON(w)
		fmt.Fprint(w, `[
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 64000, "market_cap": 1250000000000, "market_cap_rank": 1},
			{"id": "ethereum", "symbol": "eth", "name": "Ethereum", "current_price": 3100, "market_cap": null, "market_cap_rank": null}
		]`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		asJSON(w)
		query := strings.ToLower(r.URL.Query().Get("query"))
		var hits []map[string]interface{}
		for _, f := range searchFixtures {
			if strings.Contains(strings.ToLower(f.Name), query) || strings.Contains(strings.ToLower(f.Symbol), query) {
				hits = append(hits, map[string]interface{}{
					"id": f.ID, "name": f.Name, "symbol": f.Symbol,
					"market_cap_rank": nil, "thumb": "t.png", "small": "s.png", "large": "l.png",
				})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"coins": hits, "exchanges": []any{}, "icos": []any{}, "categories": []any{}, "nfts": []any{},
		})
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		asJSON(w)
		var prices, caps, vols [][2]float64
		for i := 0; i < 10; i++ {
			ts := float64(1700000000000 + i*86400000)
			prices = append(prices, [2]float64{ts, 60000 + float64(i)})
			caps = append(caps, [2]float64{ts, 1.2e12})
			vols = append(vols, [2]float64{ts, 3.0e10})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"prices": prices, "market_caps": caps, "total_volumes": vols,
		})
	})
	mux.HandleFunc("/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		asJSON(w)
		fmt.Fprint(w, `{
			"id": "bitcoin", "symbol": "btc", "name": "Bitcoin",
			"image": {"large": "l.png", "small": "s.png"},
			"market_data": {"current_price": {"usd": 64000}, "market_cap": {"usd": 1250000000000}}
		}`)
	})
	mux.HandleFunc("/coins/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		asJSON(w)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "coin not found"}`)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &seen
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &utils.AppConfig{
		Coingecko: &utils.CoingeckoConfig{
			BaseURL:           baseURL,
			QuoteCurrency:     "usd",
			RequestTimeoutSec: 5,
			RateLimitPerSec:   1000,
			RateLimitBurst:    1000,
			MarketPageSize:    50,
		},
	}
	client, err := NewClient(cfg, utils.NewLogger(utils.Error))
	require.NoError(t, err)
	return client
}

func TestNewClient_DefaultsInvalidConfig(t *testing.T) {
	cfg := &utils.AppConfig{Coingecko: &utils.CoingeckoConfig{}}
	client, err := NewClient(cfg, utils.NewLogger(utils.Error))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.cfg.BaseURL)
	assert.Equal(t, "usd", client.cfg.QuoteCurrency)
	assert.Equal(t, defaultTimeoutSec, client.cfg.RequestTimeoutSec)
	assert.Equal(t, defaultPageSize, client.cfg.MarketPageSize)
}

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)

	_, err = NewClient(&utils.AppConfig{}, utils.NewLogger(utils.Error))
	assert.Error(t, err)
}

func TestGetMarketPage(t *testing.T) {
	ts, seen := newTestServer(t)
	client := newTestClient(t, ts.URL)

	coins, err := client.GetMarketPage(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, coins, 2)

	q := (*seen)[0]
	assert.Equal(t, "usd", q.Get("vs_currency"))
	assert.Equal(t, "market_cap_desc", q.Get("order"))
	assert.Equal(t, "50", q.Get("per_page"))
	assert.Equal(t, "2", q.Get("page"))

	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 64000.0, coins[0].CurrentPrice)
	require.NotNil(t, coins[0].MarketCap)
	assert.Equal(t, 1.25e12, *coins[0].MarketCap)

	// Nullable fields stay nil rather than collapsing to zero.
	assert.Nil(t, coins[1].MarketCap)
	assert.Nil(t, coins[1].MarketCapRank)
}

func TestGetMarketPage_DefaultsPage(t *testing.T) {
	ts, seen := newTestServer(t)
	client := newTestClient(t, ts.URL)

	_, err := client.GetMarketPage(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "1", (*seen)[0].Get("page"))
}

func TestSearchCoins_CaseInsensitive(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t, ts.URL)

	lower, err := client.SearchCoins(context.Background(), "bitcoin")
	require.NoError(t, err)
	upper, err := client.SearchCoins(context.Background(), "BITCOIN")
	require.NoError(t, err)

	require.Equal(t, len(lower.Coins), len(upper.Coins))
	for i := range lower.Coins {
		assert.Equal(t, lower.Coins[i].ID, upper.Coins[i].ID)
	}
	assert.Len(t, lower.Coins, 2) // bitcoin and bitcoin-cash
}

func TestGetCoinDetail(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t, ts.URL)

	detail, err := client.GetCoinDetail(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", detail.ID)
	assert.Equal(t, "l.png", detail.Image)
	assert.Equal(t, 64000.0, detail.CurrentPrice)
	require.NotNil(t, detail.MarketCap)
}

func TestGetCoinDetail_UnknownIDRejects(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newTestClient(t, ts.URL)

	_, err := client.GetCoinDetail(context.Background(), "no-such-coin")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetCoinChart(t *testing.T) {
	ts, seen := newTestServer(t)
	client := newTestClient(t, ts.URL)

	chart, err := client.GetCoinChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	assert.Equal(t, "7", (*seen)[0].Get("days"))
	assert.NotEmpty(t, chart.Prices)
	assert.Len(t, chart.MarketCaps, len(chart.Prices))
	assert.Len(t, chart.TotalVolumes, len(chart.Prices))

	// days <= 0 falls back to the default window.
	_, err = client.GetCoinChart(context.Background(), "bitcoin", 0)
	require.NoError(t, err)
	assert.Equal(t, "365", (*seen)[1].Get("days"))
}

func TestRateLimitResponsePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"status": {"error_code": 429}}`)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, ts.URL)

	// The 429 hook observes the response but the error still reaches the
	// caller unchanged.
	_, err := client.GetMarketPage(context.Background(), 1)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}
