package cron

import (
	"context"
	"sync"
	"time"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/jobs"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

// DefaultArmGrace delays the first fire of every job after arming so the
// timers do not race the unlock transaction that armed them.
const DefaultArmGrace = 10 * time.Second

// CronManager owns the recurring timers for enabled scheduler jobs. It
// holds no job state beyond the active entry handles; definitions and run
// records live in the store, so a restart re-arms from there.
type CronManager struct {
	jobRepo interfaces.SchedulerJobRepository
	runner  *jobs.Runner
	log     logger.Logger
	grace   time.Duration

	mu     sync.Mutex
	armed  bool
	cron   *cronv3.Cron
	jobIDs map[int64]cronv3.EntryID
}

func NewCronManager(jobRepo interfaces.SchedulerJobRepository, runner *jobs.Runner, log logger.Logger, grace time.Duration) *CronManager {
	if grace <= 0 {
		grace = DefaultArmGrace
	}
	return &CronManager{
		jobRepo: jobRepo,
		runner:  runner,
		log:     log,
		grace:   grace,
		jobIDs:  make(map[int64]cronv3.EntryID),
	}
}

// Arm reads all enabled job definitions and registers one recurring timer
// per job, first fire after the grace period. Idempotent: a second call on
// an armed manager is a no-op. Jobs that fail to register do not prevent
// the rest from arming.
func (cm *CronManager) Arm(ctx context.Context, secret string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.armed {
		return nil
	}

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.Arm")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	enabled, err := cm.jobRepo.ListEnabled(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	c := cronv3.New(cronv3.WithChain(
		cronv3.Recover(cronv3.DefaultLogger),
	))

	firstFire := time.Now().Add(cm.grace)
	for _, job := range enabled {
		job := job
		schedule := &intervalSchedule{
			interval: time.Duration(job.IntervalMinutes) * time.Minute,
			first:    firstFire,
		}
		id := c.Schedule(schedule, cronv3.FuncJob(func() {
			defer tracing.RecoverAndLog(cm.log)
			cm.runner.Run(context.Background(), job, secret)
		}))
		cm.jobIDs[job.ID] = id
		cm.log.Infof("Armed job %q (%d) every %d minute(s)", job.JobName, job.ID, job.IntervalMinutes)
	}

	c.Start()
	cm.cron = c
	cm.armed = true
	cm.log.Infof("Scheduler armed with %d job(s)", len(cm.jobIDs))
	return nil
}

// Armed reports whether the manager currently holds active timers.
func (cm *CronManager) Armed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.armed
}

// Entries returns the number of registered timers.
func (cm *CronManager) Entries() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.jobIDs)
}

// Stop cancels all timers and waits for running job bodies to return.
// Invoked on process shutdown.
func (cm *CronManager) Stop() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.cron != nil {
		cm.log.Info("Stopping scheduler")
		ctx := cm.cron.Stop()
		<-ctx.Done()
		cm.cron = nil
	}
	cm.jobIDs = make(map[int64]cronv3.EntryID)
	cm.armed = false
}

// intervalSchedule fires first at a fixed point (arming time plus grace)
// and every interval thereafter.
type intervalSchedule struct {
	interval time.Duration
	first    time.Time
}

var _ cronv3.Schedule = (*intervalSchedule)(nil)

func (s *intervalSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.interval)
}
