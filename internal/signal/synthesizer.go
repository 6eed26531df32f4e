// Package signal turns per-asset collected inputs into trading signals.
// The language model is the preferred judge; when it is unconfigured,
// unreachable or answers nonsense, a randomized conservative fallback
// keeps the pipeline producing output.
package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
	"crypto-pulse/internal/llm"
	"crypto-pulse/internal/provider"
)

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Inputs is everything collected for one asset in a pipeline run.
// Quote, FearGreed and Sentiment are always present; OnChain and
// DevActivity may be nil.
type Inputs struct {
	Asset       domain.Asset
	Quote       domain.AssetQuote
	FearGreed   *provider.FearGreedPoint
	Sentiment   domain.SentimentResult
	OnChain     *domain.OnChainSnapshot
	DevActivity *domain.DeveloperActivity
}

// Synthesizer produces exactly one signal per asset input.
type Synthesizer struct {
	tracer trace.Tracer
	llm    completer
}

// NewSynthesizer accepts a nil client; every signal then comes from the
// fallback path.
func NewSynthesizer(tracer trace.Tracer, client *llm.Client) *Synthesizer {
	s := &Synthesizer{tracer: tracer}
	if client != nil {
		s.llm = client
	} else {
		log.Println("synthesizer: no language model configured, all signals will use fallback judgment")
	}
	return s
}

// Skip records an asset dropped from a run and why, for the job's
// event payload.
type Skip struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// SynthesizeAll fans out one goroutine per asset and preserves input
// order among the returned signals. A panic for one asset never affects
// the others; that asset is omitted and reported in the skip list.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, inputs []Inputs) ([]domain.TradingSignal, []Skip) {
	ctx, span := s.tracer.Start(ctx, "signal.synthesize_all")
	defer span.End()
	span.SetAttributes(attribute.Int("signal.assets", len(inputs)))

	results := make([]*domain.TradingSignal, len(inputs))
	skips := make([]*Skip, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in Inputs) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("synthesizer: dropping %s after panic: %v", in.Asset.Symbol, r)
					results[i] = nil
					skips[i] = &Skip{Symbol: in.Asset.Symbol, Reason: fmt.Sprintf("synthesis panic: %v", r)}
				}
			}()
			sig := s.Synthesize(ctx, in)
			results[i] = &sig
		}(i, in)
	}
	wg.Wait()

	signals := make([]domain.TradingSignal, 0, len(inputs))
	var skipped []Skip
	for i := range inputs {
		if results[i] != nil {
			signals = append(signals, *results[i])
		} else if skips[i] != nil {
			skipped = append(skipped, *skips[i])
		}
	}
	span.SetAttributes(attribute.Int("signal.skipped", len(skipped)))
	return signals, skipped
}

// Synthesize never fails; an unusable model verdict degrades to the
// randomized fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, in Inputs) domain.TradingSignal {
	ctx, span := s.tracer.Start(ctx, "signal.synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("signal.symbol", in.Asset.Symbol))

	if s.llm == nil {
		return s.fallback(in, "no language model configured")
	}

	reply, err := s.llm.Complete(ctx, BuildPrompt(in))
	if err != nil {
		span.RecordError(err)
		log.Printf("synthesizer: model call failed for %s: %v", in.Asset.Symbol, err)
		return s.fallback(in, "model unavailable")
	}

	verdict, err := parseVerdict(reply)
	if err != nil {
		log.Printf("synthesizer: unusable verdict for %s: %v", in.Asset.Symbol, err)
		return s.fallback(in, "model returned an unusable verdict")
	}

	span.SetAttributes(
		attribute.String("signal.action", string(verdict.Action)),
		attribute.Float64("signal.confidence", verdict.Confidence),
	)
	return domain.TradingSignal{
		Symbol:     in.Asset.Symbol,
		Action:     verdict.Action,
		Confidence: verdict.Confidence,
		Reasoning:  verdict.Reasoning,
		Metrics:    metricsOf(in),
		CreatedAt:  time.Now().UTC(),
	}
}

type verdict struct {
	Action     domain.SignalAction
	Confidence float64
	Reasoning  string
}

func parseVerdict(reply string) (verdict, error) {
	var raw struct {
		Action     string  `json:"action"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(reply)), &raw); err != nil {
		return verdict{}, fmt.Errorf("decode verdict: %w", err)
	}

	action := domain.SignalAction(raw.Action)
	if !action.IsValid() {
		return verdict{}, fmt.Errorf("invalid action %q", raw.Action)
	}
	return verdict{
		Action:     action,
		Confidence: clamp(raw.Confidence),
		Reasoning:  raw.Reasoning,
	}, nil
}

func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

var fallbackActions = []domain.SignalAction{domain.ActionBuy, domain.ActionSell, domain.ActionHold}

// fallback picks a uniform action with confidence in [50,90).
func (s *Synthesizer) fallback(in Inputs, reason string) domain.TradingSignal {
	return domain.TradingSignal{
		Symbol:     in.Asset.Symbol,
		Action:     fallbackActions[rand.Intn(len(fallbackActions))],
		Confidence: 50 + rand.Float64()*40,
		Reasoning:  "Automated fallback signal (" + reason + ").",
		Metrics:    metricsOf(in),
		CreatedAt:  time.Now().UTC(),
	}
}

func metricsOf(in Inputs) domain.SignalMetrics {
	m := domain.SignalMetrics{
		Price:     in.Quote.CurrentPrice,
		Sentiment: in.Sentiment.Sentiment,
	}
	if in.FearGreed != nil {
		m.FearGreed = in.FearGreed.Value
	}
	if in.DevActivity != nil {
		m.DevActivityCommits = in.DevActivity.Commits7d
	}
	return m
}
