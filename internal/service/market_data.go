package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
)

type PriceCollector interface {
	Collect(ctx context.Context) []domain.AssetQuote
}

type NewsCollector interface {
	Collect(ctx context.Context, query string, limit int) []domain.NewsArticle
}

type OnChainCollector interface {
	Collect(ctx context.Context, symbol string) *domain.OnChainSnapshot
}

type FearGreedCollector interface {
	Collect(ctx context.Context) *provider.FearGreedPoint
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketDataService serves the read endpoints. Redis shortens the path
// for repeat reads across processes; the collectors underneath already
// guarantee a usable answer, so every method is infallible for known
// inputs.
type MarketDataService struct {
	tracer    trace.Tracer
	prices    PriceCollector
	news      NewsCollector
	onChain   OnChainCollector
	fearGreed FearGreedCollector
	redis     RedisClient
	cacheTTL  time.Duration
}

func NewMarketDataService(
	tracer trace.Tracer,
	prices PriceCollector,
	news NewsCollector,
	onChain OnChainCollector,
	fearGreed FearGreedCollector,
	redisClient RedisClient,
	cacheTTL time.Duration,
) *MarketDataService {
	return &MarketDataService{
		tracer:    tracer,
		prices:    prices,
		news:      news,
		onChain:   onChain,
		fearGreed: fearGreed,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
	}
}

// Prices returns the tracked-asset basket, rank order preserved.
func (s *MarketDataService) Prices(ctx context.Context) []domain.AssetQuote {
	_, span := s.tracer.Start(ctx, "market-data.prices")
	defer span.End()

	var cached []domain.AssetQuote
	if s.readCache(ctx, "market:prices", &cached) {
		return cached
	}

	quotes := s.prices.Collect(ctx)
	s.writeCache(ctx, "market:prices", quotes)
	return quotes
}

// News returns up to limit articles, newest first.
func (s *MarketDataService) News(ctx context.Context, limit int) []domain.NewsArticle {
	_, span := s.tracer.Start(ctx, "market-data.news")
	defer span.End()

	var articles []domain.NewsArticle
	if !s.readCache(ctx, "market:news", &articles) {
		articles = s.news.Collect(ctx, "", 0)
		s.writeCache(ctx, "market:news", articles)
	}

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}

// OnChain returns metrics for one tracked symbol; unknown symbols are
// the only error case.
func (s *MarketDataService) OnChain(ctx context.Context, symbol string) (*domain.OnChainSnapshot, error) {
	_, span := s.tracer.Start(ctx, "market-data.onchain")
	defer span.End()

	if _, ok := domain.AssetBySymbol(symbol); !ok {
		return nil, fmt.Errorf("unsupported asset: %s", symbol)
	}

	key := "market:onchain:" + symbol
	var cached domain.OnChainSnapshot
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot := s.onChain.Collect(ctx, symbol)
	s.writeCache(ctx, key, snapshot)
	return snapshot, nil
}

func (s *MarketDataService) FearGreed(ctx context.Context) *provider.FearGreedPoint {
	_, span := s.tracer.Start(ctx, "market-data.feargreed")
	defer span.End()

	var cached provider.FearGreedPoint
	if s.readCache(ctx, "market:feargreed", &cached) {
		return &cached
	}

	point := s.fearGreed.Collect(ctx)
	s.writeCache(ctx, "market:feargreed", point)
	return point
}

func (s *MarketDataService) readCache(ctx context.Context, key string, out any) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("redis cache read error for %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("redis cache decode error for %s: %v", key, err)
		return false
	}
	return true
}

func (s *MarketDataService) writeCache(ctx context.Context, key string, value any) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		log.Printf("redis cache write error for %s: %v", key, err)
	}
}
