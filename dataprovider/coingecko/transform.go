// File: dataprovider/coingecko/transform.go
package coingecko

import (
	"cointrack/dataprovider"
)

// --- Internal structs for CoinGecko's nested /coins/{id} response ---

type cgImage struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// cgDetailMarketData carries per-currency maps for the monetary fields.
// Values are pointers so an explicit JSON null stays distinguishable from a
// missing key; both decode to nil.
type cgDetailMarketData struct {
	CurrentPrice       map[string]*float64 `json:"current_price"`
	MarketCap          map[string]*float64 `json:"market_cap"`
	TotalVolume        map[string]*float64 `json:"total_volume"`
	High24h            map[string]*float64 `json:"high_24h"`
	Low24h             map[string]*float64 `json:"low_24h"`
	Ath                map[string]*float64 `json:"ath"`
	AthDate            map[string]string   `json:"ath_date"`
	Atl                map[string]*float64 `json:"atl"`
	AtlDate            map[string]string   `json:"atl_date"`
	MarketCapChange24h map[string]*float64 `json:"market_cap_change_24h_in_currency"`

	PriceChange24h               *float64 `json:"price_change_24h"`
	PriceChangePercentage24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapChangePercentage24h *float64 `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64 `json:"circulating_supply"`
	TotalSupply                  *float64 `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
}

type cgCoinDetail struct {
	ID                           string                   `json:"id"`
	Symbol                       string                   `json:"symbol"`
	Name                         string                   `json:"name"`
	Image                        *cgImage                 `json:"image"`
	Description                  map[string]string        `json:"description"`
	Links                        *dataprovider.CoinLinks  `json:"links"`
	Categories                   []string                 `json:"categories"`
	MarketCapRank                *int                     `json:"market_cap_rank"`
	SentimentVotesUpPercentage   float64                  `json:"sentiment_votes_up_percentage"`
	SentimentVotesDownPercentage float64                  `json:"sentiment_votes_down_percentage"`
	MarketData                   *cgDetailMarketData      `json:"market_data"`
	LastUpdated                  string                   `json:"last_updated"`
}

// usd pulls the USD entry from a per-currency map. A missing map, a missing
// key and an explicit null all come back as nil.
func usd(m map[string]*float64) *float64 {
	if m == nil {
		return nil
	}
	return m["usd"]
}

// transformCoinDetail maps the provider's nested detail shape into the flat,
// defaulted domain shape. It is total and deterministic: every output field is
// either the provider's value or a documented default, and no input makes it
// panic.
//
// Default policy:
//   - image: large, falling back to small, falling back to ""
//   - CurrentPrice: 0 when market_data (or its USD entry) is absent
//   - other monetary fields: nil when absent; an explicit upstream null is
//     passed through as nil, never coerced to 0
//   - description: {"en": ""} when absent
//   - links: the provider's object as-is when present; only total absence
//     synthesizes the full default object (no field-by-field merge)
//   - categories: empty slice when absent
func transformCoinDetail(raw cgCoinDetail) dataprovider.CoinDetail {
	detail := dataprovider.CoinDetail{
		Coin: dataprovider.Coin{
			ID:            raw.ID,
			Symbol:        raw.Symbol,
			Name:          raw.Name,
			Image:         selectImage(raw.Image),
			MarketCapRank: raw.MarketCapRank,
			LastUpdated:   raw.LastUpdated,
		},
		SentimentVotesUpPercentage:   raw.SentimentVotesUpPercentage,
		SentimentVotesDownPercentage: raw.SentimentVotesDownPercentage,
	}

	if md := raw.MarketData; md != nil {
		if price := usd(md.CurrentPrice); price != nil {
			detail.CurrentPrice = *price
		}
		detail.MarketCap = usd(md.MarketCap)
		detail.TotalVolume = usd(md.TotalVolume)
		detail.High24h = usd(md.High24h)
		detail.Low24h = usd(md.Low24h)
		detail.Ath = usd(md.Ath)
		detail.Atl = usd(md.Atl)
		detail.MarketCapChange24h = usd(md.MarketCapChange24h)
		detail.AthDate = md.AthDate["usd"]
		detail.AtlDate = md.AtlDate["usd"]

		detail.PriceChange24h = md.PriceChange24h
		detail.PriceChangePercentage24h = md.PriceChangePercentage24h
		detail.MarketCapChangePercentage24h = md.MarketCapChangePercentage24h
		detail.CirculatingSupply = md.CirculatingSupply
		detail.TotalSupply = md.TotalSupply
		detail.MaxSupply = md.MaxSupply
	}

	if raw.Description != nil {
		detail.Description = raw.Description
		if _, ok := detail.Description["en"]; !ok {
			detail.Description["en"] = ""
		}
	} else {
		detail.Description = map[string]string{"en": ""}
	}

	if raw.Links != nil {
		detail.Links = *raw.Links
	} else {
		detail.Links = defaultLinks()
	}

	if raw.Categories != nil {
		detail.Categories = raw.Categories
	} else {
		detail.Categories = []string{}
	}

	return detail
}

func selectImage(img *cgImage) string {
	if img == nil {
		return ""
	}
	if img.Large != "" {
		return img.Large
	}
	return img.Small
}

// defaultLinks is the full substitute object used when the provider omits the
// links key entirely.
func defaultLinks() dataprovider.CoinLinks {
	return dataprovider.CoinLinks{
		Homepage:         []string{},
		BlockchainSite:   []string{},
		OfficialForumURL: []string{},
		ChatURL:          []string{},
		AnnouncementURL:  []string{},
		ReposURL: dataprovider.ReposURL{
			Github:    []string{},
			Bitbucket: []string{},
		},
	}
}
