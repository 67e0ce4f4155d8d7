package walletapi

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
)

const (
	marketCacheKey      = "market_prices"
	marketCacheDuration = 60 * time.Second
	// kept without TTL so an expired cache can still be served when the
	// upstream API is down
	marketStaleKey = "market_prices_stale"

	coingeckoURL = "https://api.coingecko.com/api/v3/simple/price"
)

type TokenPrice struct {
	Usd       float64 `json:"usd"`
	Change24h float64 `json:"change24h"`
}

var coinIds = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
}

// FallbackPrices is served when the upstream API fails and no cache exists.
var FallbackPrices = map[string]TokenPrice{
	"BTC":   {Usd: 70389, Change24h: 2.66},
	"ETH":   {Usd: 2107.6, Change24h: 4.16},
	"USDT":  {Usd: 0.999, Change24h: 0.01},
	"BNB":   {Usd: 647.07, Change24h: 1.22},
	"MATIC": {Usd: 0.75, Change24h: 1.5},
}

// MarketPrices returns the current price table: redis cache first (60s TTL),
// then CoinGecko, then the stale cache, then the fallback table. It never
// returns an error to callers; price display must not break the wallet.
func MarketPrices(ctx context.Context, rdb *redis.Client) map[string]TokenPrice {
	cached, err := rdb.Get(ctx, marketCacheKey).Result()
	if err == nil && len(cached) > 0 {
		var prices map[string]TokenPrice
		if json.Unmarshal([]byte(cached), &prices) == nil {
			return prices
		}
	}

	prices, err := fetchCoingecko(ctx)
	if err == nil {
		raw, _ := json.Marshal(prices)
		rdb.Set(ctx, marketCacheKey, raw, marketCacheDuration)
		rdb.Set(ctx, marketStaleKey, raw, 0)
		return prices
	}

	stale, serr := rdb.Get(ctx, marketStaleKey).Result()
	if serr == nil && len(stale) > 0 {
		var old map[string]TokenPrice
		if json.Unmarshal([]byte(stale), &old) == nil {
			return old
		}
	}
	return FallbackPrices
}

func fetchCoingecko(ctx context.Context) (map[string]TokenPrice, error) {
	client := resty.New().SetTimeout(5 * time.Second)
	var payload map[string]map[string]float64
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 "bitcoin,ethereum,tether,binancecoin,matic-network",
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		SetResult(&payload).
		Get(coingeckoURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errUpstream
	}

	prices := make(map[string]TokenPrice, len(coinIds))
	for symbol, id := range coinIds {
		entry, ok := payload[id]
		if !ok {
			prices[symbol] = FallbackPrices[symbol]
			continue
		}
		price := TokenPrice{Usd: entry["usd"], Change24h: entry["usd_24h_change"]}
		if price.Usd == 0 {
			price = FallbackPrices[symbol]
		}
		prices[symbol] = price
	}
	return prices, nil
}

type GasOption struct {
	Fee  float64 `json:"fee"`
	Time string  `json:"time"`
}

// GasFees mirrors real-world exchange network fees. Static on purpose; the
// wallet is a simulation.
func GasFees() map[string]map[string]GasOption {
	return map[string]map[string]GasOption{
		"Ethereum": {
			"slow":    {Fee: 2.50, Time: "~5 min"},
			"average": {Fee: 4.20, Time: "~2 min"},
			"fast":    {Fee: 8.80, Time: "~30 sec"},
		},
		"BNB Chain": {
			"slow":    {Fee: 0.15, Time: "~3 min"},
			"average": {Fee: 0.25, Time: "~1 min"},
			"fast":    {Fee: 0.50, Time: "~20 sec"},
		},
		"Polygon": {
			"slow":    {Fee: 0.008, Time: "~4 min"},
			"average": {Fee: 0.02, Time: "~2 min"},
			"fast":    {Fee: 0.05, Time: "~30 sec"},
		},
		"Bitcoin": {
			"slow":    {Fee: 1.20, Time: "~30 min"},
			"average": {Fee: 2.50, Time: "~15 min"},
			"fast":    {Fee: 5.50, Time: "~10 min"},
		},
	}
}

type ChartPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

var chartPointCounts = map[string]int{
	"1H": 12, "1D": 24, "1W": 7, "1M": 30, "1Y": 12, "All": 50,
}

var chartIntervals = map[string]time.Duration{
	"1H":  5 * time.Minute,
	"1D":  time.Hour,
	"1W":  24 * time.Hour,
	"1M":  24 * time.Hour,
	"1Y":  30 * 24 * time.Hour,
	"All": 365 * 24 * time.Hour / 50,
}

// ChartPoints synthesizes a historical series from the current price and
// its 24h change. Stablecoins get a tighter variance band.
func ChartPoints(symbol, timeframe string, price TokenPrice, now time.Time) []ChartPoint {
	points, ok := chartPointCounts[timeframe]
	if !ok {
		points = chartPointCounts["1D"]
		timeframe = "1D"
	}
	interval := chartIntervals[timeframe]

	volatility := 0.02
	if symbol == "USDT" {
		volatility = 0.001
	}

	series := make([]ChartPoint, 0, points)
	for i := 0; i < points; i++ {
		progress := float64(i) / float64(points-1)
		timestamp := now.Add(-time.Duration(points-1-i) * interval)

		trend := 1 - (price.Change24h/100)*(1-progress)
		variance := (rand.Float64() - 0.5) * volatility * math.Abs(price.Change24h)

		value := price.Usd * (trend + variance)
		series = append(series, ChartPoint{
			Time:  timestamp.UnixMilli(),
			Value: math.Max(value, 0.001),
		})
	}
	return series
}
