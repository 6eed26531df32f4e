package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"crypto-pulse/internal/domain"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type blockingRunner struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (r *blockingRunner) Run(context.Context) (*domain.AnalysisJob, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.release != nil {
		<-r.release
	}
	return &domain.AnalysisJob{ID: 1, Status: domain.JobCompleted}, nil
}

func (r *blockingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSchedulerSerializeSkipsOverlappingRun(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewAnalysisScheduler(testTracer, runner, 300, true)

	done := make(chan struct{})
	go func() {
		s.fire(context.Background())
		close(done)
	}()

	// wait for the first run to be in flight
	for runner.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	s.fire(context.Background()) // must be skipped
	if got := runner.callCount(); got != 1 {
		t.Fatalf("overlapping run not skipped, runner called %d times", got)
	}

	close(runner.release)
	<-done

	// gate released: the next tick runs again
	s.fire(context.Background())
	if got := runner.callCount(); got != 2 {
		t.Fatalf("gate not released after run, runner called %d times", got)
	}
}

func TestSchedulerWithoutSerializeAllowsOverlap(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewAnalysisScheduler(testTracer, runner, 300, false)

	done := make(chan struct{})
	go func() {
		s.fire(context.Background())
		close(done)
	}()
	for runner.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	go s.fire(context.Background())
	deadline := time.After(time.Second)
	for runner.callCount() != 2 {
		select {
		case <-deadline:
			t.Fatalf("expected concurrent runs, runner called %d times", runner.callCount())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(runner.release)
	<-done
}

func TestSchedulerStartStopsOnCancel(t *testing.T) {
	runner := &blockingRunner{}
	s := NewAnalysisScheduler(testTracer, runner, 300, true)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(stopped)
	}()

	for runner.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
