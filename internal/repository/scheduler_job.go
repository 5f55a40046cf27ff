package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type schedulerJobRepository struct {
	db bun.IDB
}

func NewSchedulerJobRepository(db bun.IDB) interfaces.SchedulerJobRepository {
	return &schedulerJobRepository{db: db}
}

func (r *schedulerJobRepository) List(ctx context.Context) ([]*models.SchedulerJob, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "schedulerJobRepository.List")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var jobs []*models.SchedulerJob
	err := r.db.NewSelect().
		Model(&jobs).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return jobs, nil
}

func (r *schedulerJobRepository) ListEnabled(ctx context.Context) ([]*models.SchedulerJob, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "schedulerJobRepository.ListEnabled")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var jobs []*models.SchedulerJob
	err := r.db.NewSelect().
		Model(&jobs).
		Where("enabled = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("job_count", len(jobs))
	return jobs, nil
}

func (r *schedulerJobRepository) GetByID(ctx context.Context, id int64) (*models.SchedulerJob, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "schedulerJobRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("job_id", id)

	var job models.SchedulerJob
	err := r.db.NewSelect().
		Model(&job).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, opsdesk_errors.ErrJobNotFound
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &job, nil
}

// RecordRun overwrites the run fields for a job. Last-writer-wins.
func (r *schedulerJobRepository) RecordRun(ctx context.Context, id int64, runAt time.Time, status enum.JobStatus, runLog string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "schedulerJobRepository.RecordRun")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("job_id", id)
	span.SetTag("status", status.String())

	_, err := r.db.NewUpdate().
		Model((*models.SchedulerJob)(nil)).
		Set("last_run = ?", runAt).
		Set("last_status = ?", status).
		Set("last_run_log = ?", runLog).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
