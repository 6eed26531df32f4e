package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/llm"
	"crypto-pulse/internal/provider"
)

// sentimentExcerpts caps how many articles feed one classification.
const sentimentExcerpts = 5

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SentimentCollector classifies the aggregate mood of a news batch.
// One classification is shared by all assets within a pipeline run.
type SentimentCollector struct {
	tracer    trace.Tracer
	llm       completer
	snapshots *cache.Snapshot[domain.SentimentResult]
}

// NewSentimentCollector accepts a nil client; the collector then acts
// as unconfigured and resolves to cached or neutral sentiment.
func NewSentimentCollector(tracer trace.Tracer, client *llm.Client, freshness time.Duration) *SentimentCollector {
	c := &SentimentCollector{
		tracer:    tracer,
		snapshots: cache.NewSnapshot[domain.SentimentResult](freshness),
	}
	if client != nil {
		c.llm = client
	} else {
		log.Println("sentiment collector: no language model configured, will serve neutral sentiment")
	}
	return c
}

func (c *SentimentCollector) Collect(ctx context.Context, articles []domain.NewsArticle) domain.SentimentResult {
	return fetchWithFallback(ctx, c.tracer, "sentiment", "sentiment", c.snapshots,
		func(ctx context.Context) (domain.SentimentResult, error) {
			return c.classify(ctx, articles)
		},
		neutralSentiment)
}

func (c *SentimentCollector) classify(ctx context.Context, articles []domain.NewsArticle) (domain.SentimentResult, error) {
	if c.llm == nil {
		return domain.SentimentResult{}, provider.ErrUnconfigured
	}
	if len(articles) == 0 {
		return domain.SentimentResult{}, fmt.Errorf("no articles to classify")
	}

	reply, err := c.llm.Complete(ctx, sentimentPrompt(articles))
	if err != nil {
		return domain.SentimentResult{}, err
	}

	var result domain.SentimentResult
	if err := json.Unmarshal([]byte(llm.ExtractJSON(reply)), &result); err != nil {
		log.Printf("sentiment collector: malformed model reply, defaulting to neutral: %v", err)
		return neutralSentiment(), nil
	}
	switch result.Sentiment {
	case "positive", "negative", "neutral":
	default:
		log.Printf("sentiment collector: unknown sentiment %q, defaulting to neutral", result.Sentiment)
		return neutralSentiment(), nil
	}
	if result.Score < 0 {
		result.Score = 0
	} else if result.Score > 100 {
		result.Score = 100
	}
	return result, nil
}

func sentimentPrompt(articles []domain.NewsArticle) string {
	var b strings.Builder
	b.WriteString("Classify the overall sentiment of these cryptocurrency news excerpts.\n\n")
	for i, a := range articles {
		if i >= sentimentExcerpts {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Description)
	}
	b.WriteString("\nRespond with JSON: {\"sentiment\": \"positive\"|\"negative\"|\"neutral\", " +
		"\"score\": <0-100, 50 is neutral>, \"summary\": \"<one sentence>\"}")
	return b.String()
}
