// File: dataprovider/dataproviders.go
package dataprovider

import (
	"context"
	"encoding/json"
)

// MarketDataProvider defines the interface for accessing coin market data.
// The CoinGecko client implements it directly; CachedProvider wraps any
// implementation with a staleness window and in-flight deduplication.
type MarketDataProvider interface {
	GetMarketPage(ctx context.Context, page int) ([]Coin, error)
	SearchCoins(ctx context.Context, query string) (SearchResponse, error)
	GetCoinDetail(ctx context.Context, id string) (CoinDetail, error)
	GetCoinChart(ctx context.Context, id string, days int) (ChartData, error)
}

// Coin is the flat market-list projection of a single coin. It mirrors one row
// of the provider's /coins/markets response; nullable monetary fields stay
// pointers so "no data" is distinguishable from zero. Snapshots are immutable
// and replaced wholesale on each fetch.
type Coin struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	Image                        string   `json:"image"`
	CurrentPrice                 float64  `json:"current_price"`
	MarketCap                    *float64 `json:"market_cap"`
	MarketCapRank                *int     `json:"market_cap_rank"`
	TotalVolume                  *float64 `json:"total_volume"`
	High24h                      *float64 `json:"high_24h"`
	Low24h                       *float64 `json:"low_24h"`
	PriceChange24h               *float64 `json:"price_change_24h"`
	PriceChangePercentage24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h           *float64 `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64 `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64 `json:"circulating_supply"`
	TotalSupply                  *float64 `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
	Ath                          *float64 `json:"ath"`
	AthDate                      string   `json:"ath_date"`
	Atl                          *float64 `json:"atl"`
	AtlDate                      string   `json:"atl_date"`
	LastUpdated                  string   `json:"last_updated"`
}

// CoinDetail extends the flat Coin shape with descriptive fields. Every field
// that is optional upstream resolves to a concrete default: 0 for the price,
// nil for nullable monetary fields, "" for missing text, empty collections for
// missing lists.
type CoinDetail struct {
	Coin
	Description                  map[string]string `json:"description"`
	Links                        CoinLinks         `json:"links"`
	Categories                   []string          `json:"categories"`
	SentimentVotesUpPercentage   float64           `json:"sentiment_votes_up_percentage"`
	SentimentVotesDownPercentage float64           `json:"sentiment_votes_down_percentage"`
}

// CoinLinks holds a coin's homepage, social and repository links.
type CoinLinks struct {
	Homepage                  []string `json:"homepage"`
	BlockchainSite            []string `json:"blockchain_site"`
	OfficialForumURL          []string `json:"official_forum_url"`
	ChatURL                   []string `json:"chat_url"`
	AnnouncementURL           []string `json:"announcement_url"`
	TwitterScreenName         string   `json:"twitter_screen_name"`
	FacebookUsername          string   `json:"facebook_username"`
	BitcointalkThreadID       *int64   `json:"bitcointalk_thread_id"`
	TelegramChannelIdentifier string   `json:"telegram_channel_identifier"`
	SubredditURL              string   `json:"subreddit_url"`
	ReposURL                  ReposURL `json:"repos_url"`
}

// ReposURL groups source-repository links by host.
type ReposURL struct {
	Github    []string `json:"github"`
	Bitbucket []string `json:"bitbucket"`
}

// ChartData holds three parallel series of [epoch-millis, value] pairs.
// Chronological ordering is trusted from the provider.
type ChartData struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// SearchResult is a single coin hit from the provider's fuzzy search.
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Small         string `json:"small"`
	Large         string `json:"large"`
}

// SearchResponse groups coin hits with the non-coin result categories this
// application does not use but must accept without error.
type SearchResponse struct {
	Coins      []SearchResult    `json:"coins"`
	Exchanges  []json.RawMessage `json:"exchanges"`
	ICOs       []json.RawMessage `json:"icos"`
	Categories []json.RawMessage `json:"categories"`
	NFTs       []json.RawMessage `json:"nfts"`
}
