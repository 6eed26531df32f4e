package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"crypto-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches the tracked market basket from the
// CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting
// for the free tier (8 requests per minute).
func NewCoinGeckoProvider(tracer trace.Tracer, timeout time.Duration) *CoinGeckoProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500 * time.Millisecond),
	}
}

// FetchBasket fetches market data for all tracked assets in a single
// call and returns quotes sorted by market-cap rank.
func (p *CoinGeckoProvider) FetchBasket(ctx context.Context) ([]domain.AssetQuote, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-basket")
	defer span.End()

	ids := make([]string, 0, len(domain.TrackedAssets))
	for _, asset := range domain.TrackedAssets {
		ids = append(ids, asset.CoinGeckoID)
	}

	url := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=250&sparkline=false&price_change_percentage=7d,30d",
		p.baseURL, strings.Join(ids, ","))

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: coingecko", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: coingecko API error %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var raw []struct {
		Symbol            string  `json:"symbol"`
		Name              string  `json:"name"`
		CurrentPrice      float64 `json:"current_price"`
		MarketCap         float64 `json:"market_cap"`
		MarketCapRank     int     `json:"market_cap_rank"`
		TotalVolume       float64 `json:"total_volume"`
		High24h           float64 `json:"high_24h"`
		Low24h            float64 `json:"low_24h"`
		Change24hPct      float64 `json:"price_change_percentage_24h"`
		Change7dPct       float64 `json:"price_change_percentage_7d_in_currency"`
		Change30dPct      float64 `json:"price_change_percentage_30d_in_currency"`
		CirculatingSupply float64 `json:"circulating_supply"`
		TotalSupply       float64 `json:"total_supply"`
		ATH               float64 `json:"ath"`
		ATL               float64 `json:"atl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse markets payload: %w", err)
	}

	now := time.Now().UTC()
	quotes := make([]domain.AssetQuote, 0, len(raw))
	for _, coin := range raw {
		quotes = append(quotes, domain.AssetQuote{
			Symbol:            strings.ToUpper(coin.Symbol),
			Name:              coin.Name,
			CurrentPrice:      coin.CurrentPrice,
			MarketCap:         coin.MarketCap,
			MarketCapRank:     coin.MarketCapRank,
			TotalVolume:       coin.TotalVolume,
			High24h:           coin.High24h,
			Low24h:            coin.Low24h,
			PriceChange24hPct: coin.Change24hPct,
			PriceChange7dPct:  coin.Change7dPct,
			PriceChange30dPct: coin.Change30dPct,
			CirculatingSupply: coin.CirculatingSupply,
			TotalSupply:       coin.TotalSupply,
			ATH:               coin.ATH,
			ATL:               coin.ATL,
			LastUpdated:       now,
		})
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].MarketCapRank < quotes[j].MarketCapRank
	})

	return quotes, nil
}
