package collector

import (
	"math/rand"
	"time"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
)

// Synthetic values stand in when a provider is down and no snapshot has
// ever been cached. They are plausible enough for the pipeline to keep
// producing signals, not market truth.

func syntheticBasket() []domain.AssetQuote {
	now := time.Now().UTC()
	return []domain.AssetQuote{
		{
			Symbol:            "BTC",
			Name:              "Bitcoin",
			CurrentPrice:      45000 + rand.Float64()*5000,
			MarketCap:         9.0e11,
			MarketCapRank:     1,
			TotalVolume:       2.5e10,
			High24h:           46500,
			Low24h:            44200,
			PriceChange24hPct: rand.Float64()*8 - 4,
			PriceChange7dPct:  rand.Float64()*12 - 6,
			PriceChange30dPct: rand.Float64()*20 - 10,
			CirculatingSupply: 1.96e7,
			TotalSupply:       2.1e7,
			ATH:               69045,
			ATL:               67.81,
			LastUpdated:       now,
		},
		{
			Symbol:            "ETH",
			Name:              "Ethereum",
			CurrentPrice:      2400 + rand.Float64()*400,
			MarketCap:         2.9e11,
			MarketCapRank:     2,
			TotalVolume:       1.2e10,
			High24h:           2550,
			Low24h:            2380,
			PriceChange24hPct: rand.Float64()*8 - 4,
			PriceChange7dPct:  rand.Float64()*12 - 6,
			PriceChange30dPct: rand.Float64()*20 - 10,
			CirculatingSupply: 1.2e8,
			ATH:               4878.26,
			ATL:               0.43,
			LastUpdated:       now,
		},
	}
}

func syntheticArticles() []domain.NewsArticle {
	return []domain.NewsArticle{
		{
			Source:      "synthetic",
			Title:       "Crypto markets trade sideways as volume thins",
			Description: "No live news feed was reachable; this placeholder keeps downstream sentiment analysis running.",
			URL:         "",
			PublishedAt: time.Now().UTC(),
		},
	}
}

func neutralSentiment() domain.SentimentResult {
	return domain.SentimentResult{
		Sentiment: "neutral",
		Score:     50,
		Summary:   "No reliable sentiment signal available.",
	}
}

func syntheticOnChain(symbol string) *domain.OnChainSnapshot {
	return &domain.OnChainSnapshot{
		Symbol:            symbol,
		ActiveAddresses:   500000 + rand.Int63n(500000),
		WhaleTransactions: 50 + rand.Int63n(150),
		ExchangeInflow:    1000 + rand.Float64()*4000,
		ExchangeOutflow:   1000 + rand.Float64()*4000,
		MinerOutflow:      rand.Float64() * 500,
		AvgTxValue:        5000 + rand.Float64()*20000,
		TxVolume:          1e9 + rand.Float64()*4e9,
		Timestamp:         time.Now().UTC(),
	}
}

func syntheticDevActivity(repo string) *domain.DeveloperActivity {
	commits7d := 20 + rand.Intn(80)
	return &domain.DeveloperActivity{
		Repository:   repo,
		Commits7d:    commits7d,
		Commits30d:   commits7d*4 + rand.Intn(40),
		PRsMerged:    5 + rand.Intn(25),
		IssuesClosed: 5 + rand.Intn(30),
		StarsGained:  rand.Intn(100),
		LastCommit:   time.Now().UTC().Add(-time.Duration(rand.Intn(48)) * time.Hour),
	}
}

func neutralFearGreed() *provider.FearGreedPoint {
	return &provider.FearGreedPoint{
		Value:          50,
		Classification: "Neutral",
		Timestamp:      time.Now().UTC(),
	}
}
