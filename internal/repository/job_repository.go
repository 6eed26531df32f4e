package repository

import (
	"context"
	"errors"

	"crypto-pulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// ErrJobNotFound is returned by GetJob for an unknown id.
var ErrJobNotFound = errors.New("analysis job not found")

const createJobsTable = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
    id                  BIGSERIAL   PRIMARY KEY,
    status              TEXT        NOT NULL,
    current_step        INT         NOT NULL DEFAULT 0,
    progress_percentage INT         NOT NULL DEFAULT 0,
    event_data          TEXT        NOT NULL DEFAULT '',
    started_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at        TIMESTAMPTZ
);
`

type JobRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewJobRepository(pool PgxPool, tracer trace.Tracer) *JobRepository {
	return &JobRepository{pool: normalizePool(pool), tracer: tracer}
}

func (r *JobRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "job-repo.run-migrations")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, createJobsTable)
	return err
}

// CreateJob inserts a new pending job and returns it with its id and
// start time filled in.
func (r *JobRepository) CreateJob(ctx context.Context) (*domain.AnalysisJob, error) {
	_, span := r.tracer.Start(ctx, "job-repo.create-job")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	job := &domain.AnalysisJob{Status: domain.JobPending}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO analysis_jobs (status) VALUES ($1) RETURNING id, started_at`,
		string(domain.JobPending),
	).Scan(&job.ID, &job.StartedAt)
	if err != nil {
		return nil, err
	}
	job.StartedAt = job.StartedAt.UTC()
	return job, nil
}

// UpdateJob applies a partial update; nil fields keep their stored
// value.
func (r *JobRepository) UpdateJob(ctx context.Context, id int64, update domain.JobUpdate) error {
	_, span := r.tracer.Start(ctx, "job-repo.update-job")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_jobs SET
		     status              = COALESCE($2, status),
		     current_step        = COALESCE($3, current_step),
		     progress_percentage = COALESCE($4, progress_percentage),
		     event_data          = COALESCE($5, event_data),
		     completed_at        = COALESCE($6, completed_at)
		 WHERE id = $1`,
		id, status, update.CurrentStep, update.ProgressPercentage, update.EventJSON, update.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) GetJob(ctx context.Context, id int64) (*domain.AnalysisJob, error) {
	_, span := r.tracer.Start(ctx, "job-repo.get-job")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	job := &domain.AnalysisJob{}
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, current_step, progress_percentage, event_data, started_at, completed_at
		 FROM analysis_jobs
		 WHERE id = $1`,
		id,
	).Scan(&job.ID, &status, &job.CurrentStep, &job.ProgressPercentage,
		&job.EventJSON, &job.StartedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.StartedAt = job.StartedAt.UTC()
	if job.CompletedAt != nil {
		t := job.CompletedAt.UTC()
		job.CompletedAt = &t
	}
	return job, nil
}
