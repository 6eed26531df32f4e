package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestFearGreedFetchLatest(t *testing.T) {
	p := NewFearGreedProvider(testTracer, 0)
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/fng/" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		body := `{"data":[{"value":"72","value_classification":"Greed","timestamp":"1771009800"}]}`
		return jsonResponse(http.StatusOK, body), nil
	})}

	point, err := p.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Value != 72 || point.Classification != "Greed" {
		t.Fatalf("unexpected point: %+v", point)
	}
	if !point.Timestamp.Equal(time.Unix(1771009800, 0).UTC()) {
		t.Fatalf("unexpected timestamp: %v", point.Timestamp)
	}
}

func TestFearGreedFetchLatestEmptyPayload(t *testing.T) {
	p := NewFearGreedProvider(testTracer, 0)
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[]}`), nil
	})}

	if _, err := p.FetchLatest(context.Background()); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestFearGreedFetchLatestServerError(t *testing.T) {
	p := NewFearGreedProvider(testTracer, 0)
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, `down`), nil
	})}

	_, err := p.FetchLatest(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
