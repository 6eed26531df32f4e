package collector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/domain"
)

// Defaults applied when a caller passes an empty query or a
// non-positive limit.
const (
	DefaultNewsQuery = "cryptocurrency OR bitcoin OR ethereum"
	DefaultNewsLimit = 20
)

type newsSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.NewsArticle, error)
}

// NewsCollector resolves the latest crypto headlines.
type NewsCollector struct {
	tracer    trace.Tracer
	source    newsSearcher
	snapshots *cache.Snapshot[[]domain.NewsArticle]
}

func NewNewsCollector(tracer trace.Tracer, source newsSearcher, freshness time.Duration) *NewsCollector {
	return &NewsCollector{
		tracer:    tracer,
		source:    source,
		snapshots: cache.NewSnapshot[[]domain.NewsArticle](freshness),
	}
}

// Collect resolves up to limit headlines matching query. Snapshots are
// keyed per query so distinct searches never serve each other's
// fallback data.
func (c *NewsCollector) Collect(ctx context.Context, query string, limit int) []domain.NewsArticle {
	if query == "" {
		query = DefaultNewsQuery
	}
	if limit < 1 {
		limit = DefaultNewsLimit
	}
	articles := fetchWithFallback(ctx, c.tracer, "news", "news:"+query, c.snapshots,
		func(ctx context.Context) ([]domain.NewsArticle, error) {
			return c.source.Search(ctx, query, limit)
		},
		syntheticArticles)
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}
