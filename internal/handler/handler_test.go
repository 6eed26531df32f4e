package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
	"crypto-pulse/internal/repository"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakePipeline struct {
	mu       sync.Mutex
	executed []int64
	done     chan struct{}
	beginErr error
}

func (f *fakePipeline) Begin(context.Context) (*domain.AnalysisJob, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &domain.AnalysisJob{ID: 42, Status: domain.JobPending}, nil
}

func (f *fakePipeline) Execute(_ context.Context, job *domain.AnalysisJob) error {
	f.mu.Lock()
	f.executed = append(f.executed, job.ID)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return nil
}

type fakeJobs struct {
	job *domain.AnalysisJob
	err error
}

func (f fakeJobs) GetJob(context.Context, int64) (*domain.AnalysisJob, error) {
	return f.job, f.err
}

type fakeSignals struct {
	signals  []domain.TradingSignal
	gotLimit int
	err      error
}

func (f *fakeSignals) ListSignals(_ context.Context, limit int) ([]domain.TradingSignal, error) {
	f.gotLimit = limit
	return f.signals, f.err
}

type fakeMarket struct{}

func (fakeMarket) Prices(context.Context) []domain.AssetQuote {
	return []domain.AssetQuote{{Symbol: "BTC", CurrentPrice: 45000}}
}

func (fakeMarket) News(_ context.Context, limit int) []domain.NewsArticle {
	articles := []domain.NewsArticle{{Title: "one"}, {Title: "two"}}
	if limit < len(articles) {
		articles = articles[:limit]
	}
	return articles
}

func (fakeMarket) OnChain(_ context.Context, symbol string) (*domain.OnChainSnapshot, error) {
	return &domain.OnChainSnapshot{Symbol: symbol}, nil
}

func (fakeMarket) FearGreed(context.Context) *provider.FearGreedPoint {
	return &provider.FearGreedPoint{Value: 55, Classification: "Greed"}
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	if env.Timestamp == "" {
		t.Fatal("envelope missing timestamp")
	}
	return env
}

func TestRunAnalysisAcceptsAndExecutes(t *testing.T) {
	pipeline := &fakePipeline{done: make(chan struct{})}
	h := New(testTracer, pipeline, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/run", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	var data struct {
		JobID int64 `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.JobID != 42 {
		t.Fatalf("unexpected data %s", env.Data)
	}

	select {
	case <-pipeline.done:
	case <-time.After(time.Second):
		t.Fatal("pipeline execution not started")
	}
}

func TestRunAnalysisBeginFailure(t *testing.T) {
	pipeline := &fakePipeline{beginErr: errors.New("db down")}
	h := New(testTracer, pipeline, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/run", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !json.Valid(w.Body.Bytes()) {
		t.Fatalf("error body not json: %s", w.Body.String())
	}
}

func TestGetJob(t *testing.T) {
	job := &domain.AnalysisJob{ID: 7, Status: domain.JobRunning, CurrentStep: 3, ProgressPercentage: 42}
	h := New(testTracer, &fakePipeline{}, fakeJobs{job: job}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/jobs/7", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	var got domain.AnalysisJob
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if got.Status != domain.JobRunning || got.ProgressPercentage != 42 {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{err: repository.ErrJobNotFound}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/jobs/404", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetJobInvalidID(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/jobs/abc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetSignalsLimits(t *testing.T) {
	signals := &fakeSignals{signals: []domain.TradingSignal{{Symbol: "BTC", Action: domain.ActionBuy}}}
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, signals, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/signals?limit=5", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if signals.gotLimit != 5 {
		t.Fatalf("limit not forwarded, got %d", signals.gotLimit)
	}

	// out-of-range limit falls back to the default
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/signals?limit=9999", nil)
	r.ServeHTTP(w, req)
	if signals.gotLimit != defaultSignalLimit {
		t.Fatalf("expected default limit, got %d", signals.gotLimit)
	}
}

func TestGetSignalsStoreError(t *testing.T) {
	signals := &fakeSignals{err: errors.New("query failed")}
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, signals, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/signals", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetPricesEnvelope(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/prices", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	var quotes []domain.AssetQuote
	if err := json.Unmarshal(env.Data, &quotes); err != nil || len(quotes) != 1 {
		t.Fatalf("unexpected data %s", env.Data)
	}
}

func TestGetNewsLimit(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/news?limit=1", nil)
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w)
	var articles []domain.NewsArticle
	if err := json.Unmarshal(env.Data, &articles); err != nil || len(articles) != 1 {
		t.Fatalf("unexpected data %s", env.Data)
	}
}

func TestGetOnChain(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/onchain?asset=btc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	var snapshot domain.OnChainSnapshot
	if err := json.Unmarshal(env.Data, &snapshot); err != nil || snapshot.Symbol != "BTC" {
		t.Fatalf("unexpected data %s", env.Data)
	}
}

func TestGetOnChainRejectsUnknownAsset(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	for _, target := range []string{"/onchain", "/onchain?asset=FAKE"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", target, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestGetFearGreed(t *testing.T) {
	h := New(testTracer, &fakePipeline{}, fakeJobs{}, &fakeSignals{}, fakeMarket{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/feargreed", nil)
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w)
	var data struct {
		Value          int    `json:"value"`
		Classification string `json:"classification"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Value != 55 {
		t.Fatalf("unexpected data %s", env.Data)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth("secret"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusForbidden},
		{"right", "secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestAPIKeyAuthLeavesHealthOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth("secret"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health without a key, got %d", w.Code)
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth(""))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with auth disabled, got %d", w.Code)
	}
}
