// Package pipeline sequences the data collectors and the signal
// synthesizer into one analysis run tracked by an AnalysisJob record.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/provider"
	"crypto-pulse/internal/signal"
)

// Step numbers and the progress shown when each step starts. The final
// jump to 100 happens only when the completed status is persisted.
var stepProgress = [...]int{14, 28, 42, 57, 71, 85, 85}

var stepNames = [...]string{
	"fetch prices",
	"fetch news",
	"analyze sentiment",
	"fetch on-chain metrics",
	"fetch developer activity",
	"synthesize signals",
	"persist signals",
}

type JobStore interface {
	CreateJob(ctx context.Context) (*domain.AnalysisJob, error)
	UpdateJob(ctx context.Context, id int64, update domain.JobUpdate) error
}

type SignalStore interface {
	InsertSignals(ctx context.Context, signals []domain.TradingSignal) error
}

type priceCollector interface {
	Collect(ctx context.Context) []domain.AssetQuote
}

type newsCollector interface {
	Collect(ctx context.Context, query string, limit int) []domain.NewsArticle
}

type sentimentCollector interface {
	Collect(ctx context.Context, articles []domain.NewsArticle) domain.SentimentResult
}

type onChainCollector interface {
	Collect(ctx context.Context, symbol string) *domain.OnChainSnapshot
}

type devActivityCollector interface {
	Collect(ctx context.Context, asset domain.Asset) *domain.DeveloperActivity
}

type fearGreedCollector interface {
	Collect(ctx context.Context) *provider.FearGreedPoint
}

type synthesizer interface {
	SynthesizeAll(ctx context.Context, inputs []signal.Inputs) ([]domain.TradingSignal, []signal.Skip)
}

// Collectors groups the data-gathering dependencies of a run.
type Collectors struct {
	Prices      priceCollector
	News        newsCollector
	Sentiment   sentimentCollector
	OnChain     onChainCollector
	DevActivity devActivityCollector
	FearGreed   fearGreedCollector
}

type Orchestrator struct {
	tracer     trace.Tracer
	jobs       JobStore
	signals    SignalStore
	collectors Collectors
	synth      synthesizer
}

func NewOrchestrator(tracer trace.Tracer, jobs JobStore, signals SignalStore, collectors Collectors, synth synthesizer) *Orchestrator {
	return &Orchestrator{
		tracer:     tracer,
		jobs:       jobs,
		signals:    signals,
		collectors: collectors,
		synth:      synth,
	}
}

// Begin creates the pending job record for a run. Callers that trigger
// asynchronously return its id immediately and call Execute separately.
func (o *Orchestrator) Begin(ctx context.Context) (*domain.AnalysisJob, error) {
	_, span := o.tracer.Start(ctx, "pipeline.begin")
	defer span.End()

	job, err := o.jobs.CreateJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("create analysis job: %w", err)
	}
	span.SetAttributes(attribute.Int64("pipeline.job_id", job.ID))
	return job, nil
}

// Run executes one full pipeline run, creating its own job record.
// Every run is independent: fresh job, fresh signal batch.
func (o *Orchestrator) Run(ctx context.Context) (*domain.AnalysisJob, error) {
	job, err := o.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return job, o.Execute(ctx, job)
}

// runEvents is the job's event payload: one summary per started step
// plus any assets dropped during synthesis.
type runEvents struct {
	Steps   []string      `json:"steps"`
	Skipped []signal.Skip `json:"skipped_assets,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func (e *runEvents) json() *string {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}

// Execute drives the seven steps and guarantees the job ends in a
// terminal state. Collector failures never surface here; only
// persistence errors fail a run, and a failed run persists no signals.
func (o *Orchestrator) Execute(ctx context.Context, job *domain.AnalysisJob) error {
	ctx, span := o.tracer.Start(ctx, "pipeline.execute")
	defer span.End()
	span.SetAttributes(attribute.Int64("pipeline.job_id", job.ID))

	events := &runEvents{}

	// step 1: prices and the market-wide fear & greed index
	if err := o.advance(ctx, job, 1, events); err != nil {
		return err
	}
	quotes := o.collectors.Prices.Collect(ctx)
	fearGreed := o.collectors.FearGreed.Collect(ctx)
	events.Steps[0] = fmt.Sprintf("fetched %d quotes, fear/greed %d", len(quotes), fearGreed.Value)

	// step 2: news
	if err := o.advance(ctx, job, 2, events); err != nil {
		return err
	}
	articles := o.collectors.News.Collect(ctx, "", 0)
	events.Steps[1] = fmt.Sprintf("fetched %d articles", len(articles))

	// step 3: one sentiment shared by all assets in the run
	if err := o.advance(ctx, job, 3, events); err != nil {
		return err
	}
	sentiment := o.collectors.Sentiment.Collect(ctx, articles)
	events.Steps[2] = fmt.Sprintf("sentiment %s (%.0f)", sentiment.Sentiment, sentiment.Score)

	// step 4: per-asset on-chain metrics
	if err := o.advance(ctx, job, 4, events); err != nil {
		return err
	}
	onChain := make(map[string]*domain.OnChainSnapshot, len(domain.SignalAssets))
	for _, asset := range domain.SignalAssets {
		onChain[asset.Symbol] = o.collectors.OnChain.Collect(ctx, asset.Symbol)
	}
	events.Steps[3] = fmt.Sprintf("on-chain metrics for %d assets", len(onChain))

	// step 5: per-asset developer activity
	if err := o.advance(ctx, job, 5, events); err != nil {
		return err
	}
	devActivity := make(map[string]*domain.DeveloperActivity, len(domain.SignalAssets))
	tracked := 0
	for _, asset := range domain.SignalAssets {
		devActivity[asset.Symbol] = o.collectors.DevActivity.Collect(ctx, asset)
		if devActivity[asset.Symbol] != nil {
			tracked++
		}
	}
	events.Steps[4] = fmt.Sprintf("developer activity for %d repositories", tracked)

	// step 6: synthesize one signal per asset
	if err := o.advance(ctx, job, 6, events); err != nil {
		return err
	}
	quoteBySymbol := make(map[string]domain.AssetQuote, len(quotes))
	for _, q := range quotes {
		quoteBySymbol[q.Symbol] = q
	}
	inputs := make([]signal.Inputs, 0, len(domain.SignalAssets))
	for _, asset := range domain.SignalAssets {
		quote, ok := quoteBySymbol[asset.Symbol]
		if !ok {
			events.Skipped = append(events.Skipped, signal.Skip{
				Symbol: asset.Symbol, Reason: "no market quote in basket",
			})
			continue
		}
		inputs = append(inputs, signal.Inputs{
			Asset:       asset,
			Quote:       quote,
			FearGreed:   fearGreed,
			Sentiment:   sentiment,
			OnChain:     onChain[asset.Symbol],
			DevActivity: devActivity[asset.Symbol],
		})
	}
	signals, skipped := o.synth.SynthesizeAll(ctx, inputs)
	events.Skipped = append(events.Skipped, skipped...)
	events.Steps[5] = fmt.Sprintf("synthesized %d signals, skipped %d assets", len(signals), len(events.Skipped))

	// step 7: all-or-nothing persistence, then the terminal update
	if err := o.advance(ctx, job, 7, events); err != nil {
		return err
	}
	if err := o.signals.InsertSignals(ctx, signals); err != nil {
		return o.markFailed(ctx, job, events, fmt.Errorf("persist signals: %w", err))
	}
	events.Steps[6] = fmt.Sprintf("persisted %d signals", len(signals))

	completed := domain.JobCompleted
	progress := 100
	now := time.Now().UTC()
	if err := o.jobs.UpdateJob(ctx, job.ID, domain.JobUpdate{
		Status:             &completed,
		ProgressPercentage: &progress,
		EventJSON:          events.json(),
		CompletedAt:        &now,
	}); err != nil {
		return o.markFailed(ctx, job, events, fmt.Errorf("mark job completed: %w", err))
	}
	log.Printf("pipeline: job %d completed with %d signals", job.ID, len(signals))
	return nil
}

// advance publishes "about to run step n" before the step's work so
// observers see in-flight progress, not only finished steps.
func (o *Orchestrator) advance(ctx context.Context, job *domain.AnalysisJob, step int, events *runEvents) error {
	events.Steps = append(events.Steps, "started "+stepNames[step-1])

	update := domain.JobUpdate{
		CurrentStep:        &step,
		ProgressPercentage: &stepProgress[step-1],
		EventJSON:          events.json(),
	}
	if step == 1 {
		running := domain.JobRunning
		update.Status = &running
	}
	if err := o.jobs.UpdateJob(ctx, job.ID, update); err != nil {
		return o.markFailed(ctx, job, events, fmt.Errorf("update job at step %d: %w", step, err))
	}
	return nil
}

// markFailed flips the job to its failed terminal state and returns the
// causing error to the trigger.
func (o *Orchestrator) markFailed(ctx context.Context, job *domain.AnalysisJob, events *runEvents, cause error) error {
	log.Printf("pipeline: job %d failed: %v", job.ID, cause)
	events.Error = cause.Error()

	failed := domain.JobFailed
	now := time.Now().UTC()
	if err := o.jobs.UpdateJob(ctx, job.ID, domain.JobUpdate{
		Status:      &failed,
		EventJSON:   events.json(),
		CompletedAt: &now,
	}); err != nil {
		log.Printf("pipeline: could not mark job %d failed: %v", job.ID, err)
	}
	return cause
}
