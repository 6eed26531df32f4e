// Package job hosts background triggers for the analysis pipeline.
package job

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
)

type PipelineRunner interface {
	Run(ctx context.Context) (*domain.AnalysisJob, error)
}

// AnalysisScheduler fires a pipeline run on a fixed interval. With
// serialize enabled a tick is skipped while a previous run is still in
// flight; otherwise overlapping runs are permitted since every run is
// an independent job record.
type AnalysisScheduler struct {
	tracer    trace.Tracer
	runner    PipelineRunner
	interval  time.Duration
	serialize bool

	running atomic.Bool
}

func NewAnalysisScheduler(tracer trace.Tracer, runner PipelineRunner, pollIntervalSecs int, serialize bool) *AnalysisScheduler {
	return &AnalysisScheduler{
		tracer:    tracer,
		runner:    runner,
		interval:  time.Duration(pollIntervalSecs) * time.Second,
		serialize: serialize,
	}
}

// Start blocks until ctx is cancelled, firing one run immediately and
// then one per tick.
func (s *AnalysisScheduler) Start(ctx context.Context) {
	log.Printf("Analysis scheduler starting (interval %s, serialize %v)...", s.interval, s.serialize)

	go s.fire(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Analysis scheduler stopped")
			return
		case <-ticker.C:
			go s.fire(ctx)
		}
	}
}

func (s *AnalysisScheduler) fire(ctx context.Context) {
	if s.serialize && !s.running.CompareAndSwap(false, true) {
		log.Println("Analysis scheduler: previous run still in flight, skipping tick")
		return
	}

	ctx, span := s.tracer.Start(ctx, "scheduler.fire")
	defer span.End()

	job, err := s.runner.Run(ctx)
	if s.serialize {
		s.running.Store(false)
	}
	if err != nil {
		log.Printf("scheduled analysis run failed: %v", err)
		return
	}
	log.Printf("scheduled analysis run finished, job %d", job.ID)
}
