package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"crypto-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPIProvider searches crypto headlines on newsapi.org. The API
// requires a key; without one every search fails with ErrUnconfigured.
type NewsAPIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewNewsAPIProvider(tracer trace.Tracer, apiKey string, timeout time.Duration) *NewsAPIProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: newsAPIBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
	}
}

// Search returns up to limit articles matching query, newest first.
func (p *NewsAPIProvider) Search(ctx context.Context, query string, limit int) ([]domain.NewsArticle, error) {
	_, span := p.tracer.Start(ctx, "newsapi.search")
	defer span.End()

	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: newsapi key missing", ErrUnconfigured)
	}
	if limit < 1 {
		limit = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: newsapi", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: newsapi error %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var raw struct {
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse news payload: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, min(limit, len(raw.Articles)))
	for _, row := range raw.Articles {
		if len(articles) >= limit {
			break
		}
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Source:      strings.TrimSpace(row.Source.Name),
			Title:       title,
			Description: strings.TrimSpace(row.Description),
			URL:         strings.TrimSpace(row.URL),
			PublishedAt: row.PublishedAt.UTC(),
		})
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	return articles, nil
}
