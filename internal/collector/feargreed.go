package collector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/provider"
)

type fearGreedSource interface {
	FetchLatest(ctx context.Context) (*provider.FearGreedPoint, error)
}

// FearGreedCollector resolves the market-wide fear & greed index.
type FearGreedCollector struct {
	tracer    trace.Tracer
	source    fearGreedSource
	snapshots *cache.Snapshot[*provider.FearGreedPoint]
}

func NewFearGreedCollector(tracer trace.Tracer, source fearGreedSource, freshness time.Duration) *FearGreedCollector {
	return &FearGreedCollector{
		tracer:    tracer,
		source:    source,
		snapshots: cache.NewSnapshot[*provider.FearGreedPoint](freshness),
	}
}

func (c *FearGreedCollector) Collect(ctx context.Context) *provider.FearGreedPoint {
	return fetchWithFallback(ctx, c.tracer, "feargreed", "feargreed", c.snapshots,
		c.source.FetchLatest, neutralFearGreed)
}
