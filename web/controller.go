package web

import (
	"context"

	"cointrack/dataprovider"
	"cointrack/store"
	utils "cointrack/utilities"
)

// MarketPageData feeds the market list page.
type MarketPageData struct {
	Coins     []dataprovider.Coin
	Favorites map[string]bool
	Page      int
	PrevPage  int
	NextPage  int
}

// SearchPageData feeds the search results page.
type SearchPageData struct {
	Query     string
	Results   []dataprovider.SearchResult
	Favorites map[string]bool
}

// ChartView is a price series pre-projected into SVG coordinates.
type ChartView struct {
	Width    int
	Height   int
	Points   string
	MinPrice float64
	MaxPrice float64
	Empty    bool
}

// CoinPageData feeds the per-coin detail page.
type CoinPageData struct {
	Detail     dataprovider.CoinDetail
	Days       int
	IsFavorite bool
	Chart      ChartView
}

// ErrorPageData feeds the error page with a retry affordance.
type ErrorPageData struct {
	Status  int
	Message string
	BackURL string
}

// AppController defines the interface the web package needs to interact with
// the application's data layer and state.
type AppController interface {
	GetMarketPage(ctx context.Context, page int) ([]dataprovider.Coin, error)
	SearchCoins(ctx context.Context, query string) (dataprovider.SearchResponse, error)
	GetCoinDetail(ctx context.Context, id string) (dataprovider.CoinDetail, error)
	GetCoinChart(ctx context.Context, id string, days int) (dataprovider.ChartData, error)
	Favorites() *store.Favorites
	GetConfig() utils.AppConfig
	Logger() *utils.Logger
}
