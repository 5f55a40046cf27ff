package interfaces

import (
	"context"
	"time"

	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/models"
)

type SchedulerJobRepository interface {
	List(ctx context.Context) ([]*models.SchedulerJob, error)
	ListEnabled(ctx context.Context) ([]*models.SchedulerJob, error)
	GetByID(ctx context.Context, id int64) (*models.SchedulerJob, error)
	// RecordRun overwrites the job's last_run, last_status and last_run_log.
	// Last-writer-wins; no run history is retained.
	RecordRun(ctx context.Context, id int64, runAt time.Time, status enum.JobStatus, runLog string) error
}
