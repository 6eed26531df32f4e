package collector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/domain"
)

type basketFetcher interface {
	FetchBasket(ctx context.Context) ([]domain.AssetQuote, error)
}

// PriceCollector resolves the tracked-asset market basket.
type PriceCollector struct {
	tracer    trace.Tracer
	source    basketFetcher
	snapshots *cache.Snapshot[[]domain.AssetQuote]
}

func NewPriceCollector(tracer trace.Tracer, source basketFetcher, freshness time.Duration) *PriceCollector {
	return &PriceCollector{
		tracer:    tracer,
		source:    source,
		snapshots: cache.NewSnapshot[[]domain.AssetQuote](freshness),
	}
}

func (c *PriceCollector) Collect(ctx context.Context) []domain.AssetQuote {
	return fetchWithFallback(ctx, c.tracer, "prices", "prices", c.snapshots,
		c.source.FetchBasket, syntheticBasket)
}
