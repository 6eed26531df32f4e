// Package collector gathers market, news, sentiment, on-chain and
// developer-activity data from external providers. Every collector
// resolves to usable data no matter which providers are down: each
// call attempts a live fetch, a failed fetch falls back to the last
// cached snapshot, and with nothing cached a synthetic value is
// returned instead.
package collector

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
)

// fetchWithFallback implements the shared resolution order for all
// collectors: live fetch, last cached snapshot, synthetic.
func fetchWithFallback[T any](
	ctx context.Context,
	tracer trace.Tracer,
	name, key string,
	snapshots *cache.Snapshot[T],
	fetch func(context.Context) (T, error),
	synthetic func() T,
) T {
	ctx, span := tracer.Start(ctx, "collect."+name)
	defer span.End()
	span.SetAttributes(attribute.String("collector.key", key))

	value, err := fetch(ctx)
	if err == nil {
		snapshots.Put(key, value)
		span.SetAttributes(attribute.String("collector.source", "live"))
		return value
	}
	span.RecordError(err)
	log.Printf("collector %s: fetch failed for %s: %v", name, key, err)

	if value, fresh, ok := snapshots.Get(key); ok {
		source := "cached"
		if !fresh {
			source = "stale"
		}
		span.SetAttributes(attribute.String("collector.source", source))
		log.Printf("collector %s: serving %s snapshot for %s", name, source, key)
		return value
	}

	span.SetAttributes(attribute.String("collector.source", "synthetic"))
	log.Printf("collector %s: no snapshot for %s, using synthetic data", name, key)
	return synthetic()
}
