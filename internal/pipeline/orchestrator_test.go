package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
	"crypto-pulse/internal/signal"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeJobStore struct {
	nextID  int64
	updates []domain.JobUpdate
	failOn  int // 1-based UpdateJob call that fails, 0 = never
}

func (s *fakeJobStore) CreateJob(context.Context) (*domain.AnalysisJob, error) {
	s.nextID++
	return &domain.AnalysisJob{ID: s.nextID, Status: domain.JobPending, StartedAt: time.Now().UTC()}, nil
}

func (s *fakeJobStore) UpdateJob(_ context.Context, _ int64, update domain.JobUpdate) error {
	s.updates = append(s.updates, update)
	if s.failOn != 0 && len(s.updates) == s.failOn {
		return errors.New("job store down")
	}
	return nil
}

func (s *fakeJobStore) finalStatus() domain.JobStatus {
	for i := len(s.updates) - 1; i >= 0; i-- {
		if s.updates[i].Status != nil {
			return *s.updates[i].Status
		}
	}
	return ""
}

type fakeSignalStore struct {
	inserted [][]domain.TradingSignal
	err      error
}

func (s *fakeSignalStore) InsertSignals(_ context.Context, signals []domain.TradingSignal) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, signals)
	return nil
}

type fakePrices struct{ quotes []domain.AssetQuote }

func (f fakePrices) Collect(context.Context) []domain.AssetQuote { return f.quotes }

type fakeNews struct{}

func (fakeNews) Collect(context.Context, string, int) []domain.NewsArticle {
	return []domain.NewsArticle{{Title: "markets steady"}}
}

type fakeSentiment struct{}

func (fakeSentiment) Collect(context.Context, []domain.NewsArticle) domain.SentimentResult {
	return domain.SentimentResult{Sentiment: "positive", Score: 68}
}

type fakeOnChain struct{}

func (fakeOnChain) Collect(_ context.Context, symbol string) *domain.OnChainSnapshot {
	return &domain.OnChainSnapshot{Symbol: symbol}
}

type fakeDevActivity struct{}

func (fakeDevActivity) Collect(_ context.Context, asset domain.Asset) *domain.DeveloperActivity {
	if asset.Repo == "" {
		return nil
	}
	return &domain.DeveloperActivity{Repository: asset.Repo, Commits7d: 10}
}

type fakeFearGreed struct{}

func (fakeFearGreed) Collect(context.Context) *provider.FearGreedPoint {
	return &provider.FearGreedPoint{Value: 72, Classification: "Greed"}
}

type fakeSynth struct {
	gotInputs []signal.Inputs
}

func (f *fakeSynth) SynthesizeAll(_ context.Context, inputs []signal.Inputs) ([]domain.TradingSignal, []signal.Skip) {
	f.gotInputs = inputs
	signals := make([]domain.TradingSignal, len(inputs))
	for i, in := range inputs {
		signals[i] = domain.TradingSignal{
			Symbol:     in.Asset.Symbol,
			Action:     domain.ActionHold,
			Confidence: 60,
			Metrics:    domain.SignalMetrics{Price: in.Quote.CurrentPrice},
			CreatedAt:  time.Now().UTC(),
		}
	}
	return signals, nil
}

func fullBasket() []domain.AssetQuote {
	quotes := make([]domain.AssetQuote, len(domain.TrackedAssets))
	for i, a := range domain.TrackedAssets {
		quotes[i] = domain.AssetQuote{Symbol: a.Symbol, CurrentPrice: 1000 * float64(i+1), MarketCapRank: i + 1}
	}
	return quotes
}

func newTestOrchestrator(jobs *fakeJobStore, signals *fakeSignalStore, quotes []domain.AssetQuote) (*Orchestrator, *fakeSynth) {
	synth := &fakeSynth{}
	o := NewOrchestrator(testTracer, jobs, signals, Collectors{
		Prices:      fakePrices{quotes: quotes},
		News:        fakeNews{},
		Sentiment:   fakeSentiment{},
		OnChain:     fakeOnChain{},
		DevActivity: fakeDevActivity{},
		FearGreed:   fakeFearGreed{},
	}, synth)
	return o, synth
}

func TestRunCompletesWithMonotoneProgress(t *testing.T) {
	jobs := &fakeJobStore{}
	store := &fakeSignalStore{}
	o, _ := newTestOrchestrator(jobs, store, fullBasket())

	job, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.ID != 1 {
		t.Fatalf("unexpected job id %d", job.ID)
	}
	if got := jobs.finalStatus(); got != domain.JobCompleted {
		t.Fatalf("final status %q, want completed", got)
	}

	// first update marks the job running at step 1 / 14%
	first := jobs.updates[0]
	if first.Status == nil || *first.Status != domain.JobRunning {
		t.Fatalf("first update must set running, got %+v", first)
	}
	if *first.CurrentStep != 1 || *first.ProgressPercentage != 14 {
		t.Fatalf("first update step/progress = %d/%d", *first.CurrentStep, *first.ProgressPercentage)
	}

	last := -1
	for i, u := range jobs.updates {
		if u.ProgressPercentage == nil {
			continue
		}
		if *u.ProgressPercentage < last {
			t.Fatalf("progress decreased at update %d: %d -> %d", i, last, *u.ProgressPercentage)
		}
		last = *u.ProgressPercentage
	}
	if last != 100 {
		t.Fatalf("final progress %d, want 100", last)
	}

	final := jobs.updates[len(jobs.updates)-1]
	if final.CompletedAt == nil {
		t.Fatal("terminal update must set completed_at")
	}
	if len(store.inserted) != 1 || len(store.inserted[0]) != len(domain.SignalAssets) {
		t.Fatalf("expected one batch of %d signals, got %+v", len(domain.SignalAssets), store.inserted)
	}
}

func TestPersistenceFailureFailsRunWithoutSignals(t *testing.T) {
	jobs := &fakeJobStore{}
	store := &fakeSignalStore{err: errors.New("insert refused")}
	o, _ := newTestOrchestrator(jobs, store, fullBasket())

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("expected run error")
	}
	if got := jobs.finalStatus(); got != domain.JobFailed {
		t.Fatalf("final status %q, want failed", got)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("failed run must persist no signals, got %+v", store.inserted)
	}

	final := jobs.updates[len(jobs.updates)-1]
	if final.CompletedAt == nil {
		t.Fatal("failed job must still get completed_at")
	}
	if final.EventJSON == nil || !strings.Contains(*final.EventJSON, "insert refused") {
		t.Fatalf("failure cause must land in the event payload, got %v", final.EventJSON)
	}
}

func TestJobStoreFailureAbortsRemainingSteps(t *testing.T) {
	jobs := &fakeJobStore{failOn: 3} // step 3's progress update
	store := &fakeSignalStore{}
	o, _ := newTestOrchestrator(jobs, store, fullBasket())

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("expected run error")
	}
	if got := jobs.finalStatus(); got != domain.JobFailed {
		t.Fatalf("final status %q, want failed", got)
	}
	if len(store.inserted) != 0 {
		t.Fatal("aborted run must not reach persistence")
	}
}

func TestRunsAreIndependent(t *testing.T) {
	jobs := &fakeJobStore{}
	store := &fakeSignalStore{}
	o, _ := newTestOrchestrator(jobs, store, fullBasket())

	first, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("each run must create its own job, both got %d", first.ID)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("expected two independent signal batches, got %d", len(store.inserted))
	}
}

func TestAssetWithoutQuoteIsSkippedAndRecorded(t *testing.T) {
	basket := fullBasket()[1:] // drop BTC
	jobs := &fakeJobStore{}
	store := &fakeSignalStore{}
	o, synth := newTestOrchestrator(jobs, store, basket)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(synth.gotInputs) != len(domain.SignalAssets)-1 {
		t.Fatalf("expected %d inputs, got %d", len(domain.SignalAssets)-1, len(synth.gotInputs))
	}
	for _, in := range synth.gotInputs {
		if in.Asset.Symbol == "BTC" {
			t.Fatal("BTC must be skipped without a quote")
		}
	}

	final := jobs.updates[len(jobs.updates)-1]
	if final.EventJSON == nil || !strings.Contains(*final.EventJSON, "no market quote") {
		t.Fatalf("skip reason must be recorded, got %v", final.EventJSON)
	}
}

func TestSynthesizerInputsCarrySharedContext(t *testing.T) {
	jobs := &fakeJobStore{}
	store := &fakeSignalStore{}
	o, synth := newTestOrchestrator(jobs, store, fullBasket())

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, in := range synth.gotInputs {
		if in.FearGreed == nil || in.FearGreed.Value != 72 {
			t.Fatalf("fear/greed not shared with %s: %+v", in.Asset.Symbol, in.FearGreed)
		}
		if in.Sentiment.Sentiment != "positive" {
			t.Fatalf("sentiment not shared with %s", in.Asset.Symbol)
		}
		if in.OnChain == nil || in.OnChain.Symbol != in.Asset.Symbol {
			t.Fatalf("on-chain snapshot mismatch for %s", in.Asset.Symbol)
		}
	}
}
