package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/internal/enum"
)

// SchedulerJob is the persisted definition of a recurring task plus the
// outcome of its most recent run. The run fields are last-writer-wins;
// no history is kept.
type SchedulerJob struct {
	bun.BaseModel `bun:"table:scheduler_jobs,alias:sj"`

	ID              int64  `bun:"id,pk,autoincrement" json:"id"`
	JobName         string `bun:"job_name,notnull,unique" json:"jobName"`
	Command         string `bun:"command,notnull" json:"command"`
	IntervalMinutes int    `bun:"interval_minutes,notnull" json:"intervalMinutes"`
	Enabled         bool   `bun:"enabled,notnull" json:"enabled"`

	LastRun    *time.Time     `bun:"last_run" json:"lastRun,omitempty"`
	LastStatus enum.JobStatus `bun:"last_status" json:"lastStatus,omitempty"`
	LastRunLog string         `bun:"last_run_log" json:"lastRunLog,omitempty"`
}
