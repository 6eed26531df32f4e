package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"crypto-pulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createSignalsTable = `
CREATE TABLE IF NOT EXISTS trading_signals (
    id          BIGSERIAL   PRIMARY KEY,
    symbol      TEXT        NOT NULL,
    action      TEXT        NOT NULL,
    confidence  DOUBLE PRECISION NOT NULL,
    reasoning   TEXT        NOT NULL,
    metrics     JSONB       NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_trading_signals_created
    ON trading_signals (created_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: normalizePool(pool), tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, createSignalsTable)
	return err
}

// InsertSignals persists one pipeline run's signals in a single batch.
func (r *SignalRepository) InsertSignals(ctx context.Context, signals []domain.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "signal-repo.insert-signals")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, s := range signals {
		metrics, err := json.Marshal(s.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics for %s: %w", s.Symbol, err)
		}
		batch.Queue(
			`INSERT INTO trading_signals (symbol, action, confidence, reasoning, metrics, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.Symbol, string(s.Action), s.Confidence, s.Reasoning, metrics, s.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range signals {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListSignals returns the most recent signals, newest first.
func (r *SignalRepository) ListSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-signals")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, action, confidence, reasoning, metrics, created_at
		 FROM trading_signals
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.TradingSignal
	for rows.Next() {
		var s domain.TradingSignal
		var action string
		var metrics []byte
		if err := rows.Scan(&s.ID, &s.Symbol, &action, &s.Confidence, &s.Reasoning, &metrics, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Action = domain.SignalAction(action)
		if err := json.Unmarshal(metrics, &s.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics for signal %d: %w", s.ID, err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
