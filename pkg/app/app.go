// File: pkg/app/app.go
package app

import (
	"context"
	"errors"
	"time"

	"cointrack/dataprovider"
	"cointrack/dataprovider/coingecko"
	"cointrack/store"
	utils "cointrack/utilities"
	"cointrack/web"
)

// Controller wires the data layer to the web dashboard. It satisfies
// web.AppController.
type Controller struct {
	cfg      *utils.AppConfig
	logger   *utils.Logger
	provider dataprovider.MarketDataProvider
	favs     *store.Favorites
}

var _ web.AppController = (*Controller)(nil)

func (c *Controller) GetMarketPage(ctx context.Context, page int) ([]dataprovider.Coin, error) {
	return c.provider.GetMarketPage(ctx, page)
}

func (c *Controller) SearchCoins(ctx context.Context, query string) (dataprovider.SearchResponse, error) {
	return c.provider.SearchCoins(ctx, query)
}

func (c *Controller) GetCoinDetail(ctx context.Context, id string) (dataprovider.CoinDetail, error) {
	return c.provider.GetCoinDetail(ctx, id)
}

func (c *Controller) GetCoinChart(ctx context.Context, id string, days int) (dataprovider.ChartData, error) {
	return c.provider.GetCoinChart(ctx, id, days)
}

func (c *Controller) Favorites() *store.Favorites { return c.favs }

func (c *Controller) GetConfig() utils.AppConfig { return *c.cfg }

func (c *Controller) Logger() *utils.Logger { return c.logger }

// Run builds the full stack and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg *utils.AppConfig, logger *utils.Logger) error {
	if cfg == nil {
		return errors.New("app: AppConfig cannot be nil")
	}
	if logger == nil {
		logger = utils.NewLogger(utils.Info)
	}
	applyDefaults(cfg, logger)

	charts, err := dataprovider.NewSQLiteCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer charts.Close()
	charts.StartScheduledCleanup(
		time.Duration(cfg.Cache.CleanupIntervalMin)*time.Minute,
		cfg.Cache.RetentionDays,
	)

	cgClient, err := coingecko.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	provider := dataprovider.NewCachedProvider(cgClient, charts, ttl, logger)

	favs, err := store.NewFavorites(cfg.Favorites.FilePath, logger)
	if err != nil {
		return err
	}

	controller := &Controller{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		favs:     favs,
	}

	web.StartWebServer(ctx, controller)

	// A burst of favorites toggles collapses into one warm-up pass per
	// debounce window, operating on the latest set.
	debounce := time.Duration(cfg.Refresh.DebounceMs) * time.Millisecond
	warmer := utils.NewDebouncer(debounce, func(ids []string) {
		warmFavorites(ctx, provider, logger, ids)
	})
	defer warmer.Stop()

	unsubscribe := favs.Subscribe(warmer.Trigger)
	defer unsubscribe()

	runRefreshLoop(ctx, cfg, logger, provider, favs)

	logger.LogInfo("cointrack shutting down.")
	return nil
}

func applyDefaults(cfg *utils.AppConfig, logger *utils.Logger) {
	if cfg.Cache.TTLSec <= 0 {
		cfg.Cache.TTLSec = 60
	}
	if cfg.Cache.DBPath == "" {
		cfg.Cache.DBPath = "data/cointrack.db"
	}
	if cfg.Cache.RetentionDays <= 0 {
		cfg.Cache.RetentionDays = 30
	}
	if cfg.Cache.CleanupIntervalMin <= 0 {
		cfg.Cache.CleanupIntervalMin = 60
	}
	if cfg.Favorites.FilePath == "" {
		cfg.Favorites.FilePath = "data/favorites.json"
	}
	if cfg.Refresh.IntervalSec <= 0 {
		cfg.Refresh.IntervalSec = 300
	}
	if cfg.Refresh.DebounceMs <= 0 {
		cfg.Refresh.DebounceMs = 500
		logger.LogWarn("App: Invalid Refresh.DebounceMs, defaulting to 500")
	}
}

// runRefreshLoop keeps the first market page warm and re-reads the favorites
// file so external edits are picked up and republished to subscribers.
func runRefreshLoop(ctx context.Context, cfg *utils.AppConfig, logger *utils.Logger, provider dataprovider.MarketDataProvider, favs *store.Favorites) {
	ticker := time.NewTicker(time.Duration(cfg.Refresh.IntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			favs.Reload()
			if _, err := provider.GetMarketPage(ctx, 1); err != nil {
				logger.LogWarn("Refresh: market page warm-up failed: %v", err)
			}
			warmFavorites(ctx, provider, logger, favs.IDs())
		}
	}
}

// warmFavorites pre-fetches detail for each favorited coin so the dashboard
// serves it from cache.
func warmFavorites(ctx context.Context, provider dataprovider.MarketDataProvider, logger *utils.Logger, ids []string) {
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := provider.GetCoinDetail(ctx, id); err != nil {
			logger.LogWarn("Refresh: detail warm-up for %s failed: %v", id, err)
		}
	}
	if len(ids) > 0 {
		logger.LogDebug("Refresh: warmed %d favorite coins", len(ids))
	}
}
