package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const glassnodeBaseURL = "https://api.glassnode.com/v1"

// GlassnodeProvider assembles an on-chain snapshot from three Glassnode
// metric endpoints. Requires an API key.
type GlassnodeProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewGlassnodeProvider(tracer trace.Tracer, apiKey string, timeout time.Duration) *GlassnodeProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GlassnodeProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: glassnodeBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
	}
}

// Metrics builds a snapshot for one asset from the last seven days of
// active addresses, transfer volume, and exchange-transfer value.
func (p *GlassnodeProvider) Metrics(ctx context.Context, asset string) (*domain.OnChainSnapshot, error) {
	_, span := p.tracer.Start(ctx, "glassnode.metrics")
	defer span.End()

	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: glassnode key missing", ErrUnconfigured)
	}

	now := time.Now().UTC()
	since := now.Add(-7 * 24 * time.Hour)

	activeAddresses, err := p.lastValue(ctx, "/metrics/addresses/active_count", asset, since, now)
	if err != nil {
		return nil, fmt.Errorf("active addresses for %s: %w", asset, err)
	}
	transferVolume, err := p.lastValue(ctx, "/metrics/transfers/volume_in", asset, since, now)
	if err != nil {
		return nil, fmt.Errorf("transfer volume for %s: %w", asset, err)
	}
	exchangeValue, err := p.lastValue(ctx, "/metrics/transactions/transfers_to_exchanges_value", asset, since, now)
	if err != nil {
		return nil, fmt.Errorf("exchange transfers for %s: %w", asset, err)
	}

	return &domain.OnChainSnapshot{
		Symbol:            strings.ToUpper(asset),
		ActiveAddresses:   int64(activeAddresses),
		WhaleTransactions: int64(exchangeValue),
		ExchangeInflow:    transferVolume,
		Timestamp:         now,
	}, nil
}

// lastValue fetches one metric series and returns its most recent point.
func (p *GlassnodeProvider) lastValue(ctx context.Context, path, asset string, since, until time.Time) (float64, error) {
	params := url.Values{}
	params.Set("a", strings.ToLower(asset))
	params.Set("s", strconv.FormatInt(since.Unix(), 10))
	params.Set("u", strconv.FormatInt(until.Unix(), 10))
	params.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, fmt.Errorf("%w: glassnode", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: glassnode error %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var series []struct {
		T int64   `json:"t"`
		V float64 `json:"v"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return 0, fmt.Errorf("decode glassnode series: %w", err)
	}
	if len(series) == 0 {
		return 0, nil
	}
	return series[len(series)-1].V, nil
}
