package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const githubBaseURL = "https://api.github.com"

// GitHubProvider reads repository activity. A token raises the rate
// limit but is optional.
type GitHubProvider struct {
	client  *http.Client
	baseURL string
	token   string
	tracer  trace.Tracer
}

func NewGitHubProvider(tracer trace.Tracer, token string, timeout time.Duration) *GitHubProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GitHubProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: githubBaseURL,
		token:   strings.TrimSpace(token),
		tracer:  tracer,
	}
}

// CommitCount counts commits pushed within the last windowDays days,
// capped at one page (100 commits).
func (p *GitHubProvider) CommitCount(ctx context.Context, owner, repo string, windowDays int) (int, error) {
	_, span := p.tracer.Start(ctx, "github.commit-count")
	defer span.End()

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	params := url.Values{}
	params.Set("since", since.Format(time.RFC3339))
	params.Set("per_page", "100")

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?%s", p.baseURL, owner, repo, params.Encode())
	body, err := p.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("commits for %s/%s: %w", owner, repo, err)
	}

	var commits []json.RawMessage
	if err := json.Unmarshal(body, &commits); err != nil {
		return 0, fmt.Errorf("decode commits payload: %w", err)
	}
	return len(commits), nil
}

// RepoInfo returns stargazer count and last push time.
func (p *GitHubProvider) RepoInfo(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	_, span := p.tracer.Start(ctx, "github.repo-info")
	defer span.End()

	body, err := p.get(ctx, fmt.Sprintf("%s/repos/%s/%s", p.baseURL, owner, repo))
	if err != nil {
		return nil, fmt.Errorf("repo info for %s/%s: %w", owner, repo, err)
	}

	var raw struct {
		Stars    int       `json:"stargazers_count"`
		PushedAt time.Time `json:"pushed_at"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode repo payload: %w", err)
	}

	return &RepoInfo{Stars: raw.Stars, LastPush: raw.PushedAt.UTC()}, nil
}

func (p *GitHubProvider) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if p.token != "" {
		req.Header.Set("Authorization", "token "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Ratelimit-Remaining") == "0") {
		return nil, fmt.Errorf("%w: github", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: github error %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
