package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
)

type repoSource interface {
	CommitCount(ctx context.Context, owner, repo string, windowDays int) (int, error)
	RepoInfo(ctx context.Context, owner, repo string) (*provider.RepoInfo, error)
}

// DevActivityCollector resolves developer activity for assets with a
// mapped repository. Assets without one get nil, which downstream
// treats as "no repository" rather than a failure.
type DevActivityCollector struct {
	tracer    trace.Tracer
	source    repoSource
	snapshots *cache.Snapshot[*domain.DeveloperActivity]

	mu        sync.Mutex
	starsSeen map[string]int // last observed star total per repo
}

func NewDevActivityCollector(tracer trace.Tracer, source repoSource, freshness time.Duration) *DevActivityCollector {
	return &DevActivityCollector{
		tracer:    tracer,
		source:    source,
		snapshots: cache.NewSnapshot[*domain.DeveloperActivity](freshness),
		starsSeen: make(map[string]int),
	}
}

// Collect returns nil only when the asset has no mapped repository.
// Transient fetch failures still resolve to cached or synthetic data.
func (c *DevActivityCollector) Collect(ctx context.Context, asset domain.Asset) *domain.DeveloperActivity {
	if asset.Repo == "" {
		return nil
	}
	return fetchWithFallback(ctx, c.tracer, "devactivity", "dev:"+asset.Symbol, c.snapshots,
		func(ctx context.Context) (*domain.DeveloperActivity, error) {
			return c.fetch(ctx, asset.Repo)
		},
		func() *domain.DeveloperActivity { return syntheticDevActivity(asset.Repo) })
}

func (c *DevActivityCollector) fetch(ctx context.Context, fullRepo string) (*domain.DeveloperActivity, error) {
	owner, name, ok := strings.Cut(fullRepo, "/")
	if !ok {
		return nil, fmt.Errorf("malformed repository %q", fullRepo)
	}

	commits7d, err := c.source.CommitCount(ctx, owner, name, 7)
	if err != nil {
		return nil, err
	}
	commits30d, err := c.source.CommitCount(ctx, owner, name, 30)
	if err != nil {
		return nil, err
	}
	info, err := c.source.RepoInfo(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	return &domain.DeveloperActivity{
		Repository:  fullRepo,
		Commits7d:   commits7d,
		Commits30d:  commits30d,
		StarsGained: c.starsGained(fullRepo, info.Stars),
		LastCommit:  info.LastPush,
	}, nil
}

// starsGained tracks the delta against the previous observation; the
// first look at a repository reports zero.
func (c *DevActivityCollector) starsGained(repo string, current int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, seen := c.starsSeen[repo]
	c.starsSeen[repo] = current
	if !seen || current < previous {
		return 0
	}
	return current - previous
}
