package collector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/domain"
)

type onChainSource interface {
	Metrics(ctx context.Context, asset string) (*domain.OnChainSnapshot, error)
}

// OnChainCollector resolves per-asset on-chain metrics.
type OnChainCollector struct {
	tracer    trace.Tracer
	source    onChainSource
	snapshots *cache.Snapshot[*domain.OnChainSnapshot]
}

func NewOnChainCollector(tracer trace.Tracer, source onChainSource, freshness time.Duration) *OnChainCollector {
	return &OnChainCollector{
		tracer:    tracer,
		source:    source,
		snapshots: cache.NewSnapshot[*domain.OnChainSnapshot](freshness),
	}
}

func (c *OnChainCollector) Collect(ctx context.Context, symbol string) *domain.OnChainSnapshot {
	return fetchWithFallback(ctx, c.tracer, "onchain", "onchain:"+symbol, c.snapshots,
		func(ctx context.Context) (*domain.OnChainSnapshot, error) {
			return c.source.Metrics(ctx, symbol)
		},
		func() *domain.OnChainSnapshot { return syntheticOnChain(symbol) })
}
