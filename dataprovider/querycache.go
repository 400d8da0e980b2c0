// File: dataprovider/querycache.go
package dataprovider

import (
	"context"
	"fmt"
	"strings"
	"time"

	utils "cointrack/utilities"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedProvider decorates a MarketDataProvider with a staleness window and
// in-flight request deduplication. Within the TTL a resource key is served
// from memory; concurrent fetches for the same key observe one logical
// upstream call. Errors are never cached.
//
// Charts additionally get a warm path through the SQLite cache: fresh-enough
// persisted series are served without touching the provider, and every
// upstream fetch is written back so history survives restarts.
type CachedProvider struct {
	upstream MarketDataProvider
	cache    *gocache.Cache
	charts   *SQLiteCache
	group    singleflight.Group
	ttl      time.Duration
	logger   *utils.Logger
}

var _ MarketDataProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps upstream. charts may be nil to disable the
// persistent chart cache (tests do this).
func NewCachedProvider(upstream MarketDataProvider, charts *SQLiteCache, ttl time.Duration, logger *utils.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = utils.NewLogger(utils.Info)
	}
	return &CachedProvider{
		upstream: upstream,
		cache:    gocache.New(ttl, 2*ttl),
		charts:   charts,
		ttl:      ttl,
		logger:   logger,
	}
}

// fetch runs the cache-then-singleflight-then-upstream dance for one key.
func (p *CachedProvider) fetch(key string, fill func() (interface{}, error)) (interface{}, error) {
	if v, ok := p.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		// Re-check: another caller may have filled the cache while this one
		// was queued on the flight group.
		if v, ok := p.cache.Get(key); ok {
			return v, nil
		}
		v, err := fill()
		if err != nil {
			return nil, err
		}
		p.cache.SetDefault(key, v)
		return v, nil
	})
	return v, err
}

func (p *CachedProvider) GetMarketPage(ctx context.Context, page int) ([]Coin, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("markets:%d", page)
	v, err := p.fetch(key, func() (interface{}, error) {
		return p.upstream.GetMarketPage(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Coin), nil
}

func (p *CachedProvider) SearchCoins(ctx context.Context, query string) (SearchResponse, error) {
	// Provider matching is case-insensitive, so differently-cased queries
	// share one cache entry.
	key := "search:" + strings.ToLower(strings.TrimSpace(query))
	v, err := p.fetch(key, func() (interface{}, error) {
		return p.upstream.SearchCoins(ctx, query)
	})
	if err != nil {
		return SearchResponse{}, err
	}
	return v.(SearchResponse), nil
}

func (p *CachedProvider) GetCoinDetail(ctx context.Context, id string) (CoinDetail, error) {
	key := "detail:" + id
	v, err := p.fetch(key, func() (interface{}, error) {
		return p.upstream.GetCoinDetail(ctx, id)
	})
	if err != nil {
		return CoinDetail{}, err
	}
	return v.(CoinDetail), nil
}

func (p *CachedProvider) GetCoinChart(ctx context.Context, id string, days int) (ChartData, error) {
	if days <= 0 {
		days = 365
	}
	key := fmt.Sprintf("chart:%s:%d", id, days)
	v, err := p.fetch(key, func() (interface{}, error) {
		if chart, ok := p.loadWarmChart(id, days); ok {
			p.logger.LogInfo("Query cache: serving %s chart (%dd) from SQLite warm cache", id, days)
			return chart, nil
		}
		chart, err := p.upstream.GetCoinChart(ctx, id, days)
		if err != nil {
			return ChartData{}, err
		}
		p.persistChart(id, chart)
		return chart, nil
	})
	if err != nil {
		return ChartData{}, err
	}
	return v.(ChartData), nil
}

// loadWarmChart reads the persisted series for the lookback window. It only
// reports ok when the newest price point is within the TTL, so a stale disk
// cache never shadows a live fetch.
func (p *CachedProvider) loadWarmChart(id string, days int) (ChartData, bool) {
	if p.charts == nil {
		return ChartData{}, false
	}

	latest, err := p.charts.LatestTimestamp(id, SeriesPrices)
	if err != nil {
		p.logger.LogWarn("Query cache: failed to read latest chart timestamp for %s: %v", id, err)
		return ChartData{}, false
	}
	if latest == 0 || time.Since(time.UnixMilli(latest)) > p.ttl {
		return ChartData{}, false
	}

	now := time.Now()
	start := now.AddDate(0, 0, -days).UnixMilli()
	end := now.UnixMilli()

	var chart ChartData
	for _, s := range []struct {
		name string
		dst  *[][2]float64
	}{
		{SeriesPrices, &chart.Prices},
		{SeriesMarketCaps, &chart.MarketCaps},
		{SeriesTotalVolumes, &chart.TotalVolumes},
	} {
		points, err := p.charts.GetSeries(id, s.name, start, end)
		if err != nil {
			p.logger.LogWarn("Query cache: failed to read %s series for %s: %v", s.name, id, err)
			return ChartData{}, false
		}
		*s.dst = points
	}

	if len(chart.Prices) == 0 {
		return ChartData{}, false
	}
	return chart, true
}

func (p *CachedProvider) persistChart(id string, chart ChartData) {
	if p.charts == nil {
		return
	}
	for _, s := range []struct {
		name   string
		points [][2]float64
	}{
		{SeriesPrices, chart.Prices},
		{SeriesMarketCaps, chart.MarketCaps},
		{SeriesTotalVolumes, chart.TotalVolumes},
	} {
		if err := p.charts.SaveSeries(id, s.name, s.points); err != nil {
			p.logger.LogWarn("Query cache: failed to persist %s series for %s: %v", s.name, id, err)
		}
	}
}
