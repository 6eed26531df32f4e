package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase is returned by every operation when the service runs
// without DATABASE_URL. Persistence degrades to an error the caller
// can handle instead of a nil-pool panic.
var ErrNoDatabase = errors.New("no database configured")

// statementTimeout bounds every Postgres call so a hung connection
// fails the operation instead of stalling a pipeline run.
const statementTimeout = 10 * time.Second

func boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, statementTimeout)
}

// normalizePool collapses a typed-nil *pgxpool.Pool into a nil
// interface so the per-operation nil checks catch it.
func normalizePool(pool PgxPool) PgxPool {
	if p, ok := pool.(*pgxpool.Pool); ok && p == nil {
		return nil
	}
	return pool
}
