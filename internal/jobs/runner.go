package jobs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/opsdesk/opsdesk/config"
	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

// Outcome is the result of one job invocation.
type Outcome struct {
	Status   enum.JobStatus
	Log      string
	Skipped  bool
	TimedOut bool
}

// Runner executes one scheduled job as an isolated child process. The
// process boundary is the fault-containment mechanism: a hanging or
// crashing job body cannot take down the scheduler.
type Runner struct {
	jobRepo interfaces.SchedulerJobRepository
	log     logger.Logger

	// program is the executable to launch; defaults to this binary so job
	// commands are subcommands of the same build.
	program string
	timeout time.Duration

	inflight sync.Map // job id -> struct{}
}

type RunnerOptions struct {
	// Program overrides the launched executable. Empty means this binary.
	Program string
	// Timeout is the hard wall-clock bound per run. Zero means 300s.
	Timeout time.Duration
}

func NewRunner(jobRepo interfaces.SchedulerJobRepository, log logger.Logger, opts RunnerOptions) (*Runner, error) {
	program := opts.Program
	if program == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, "resolve executable")
		}
		program = self
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &Runner{
		jobRepo: jobRepo,
		log:     log,
		program: program,
		timeout: timeout,
	}, nil
}

// Run launches the job's command, bounds it with the wall-clock timeout,
// captures both output streams and records the outcome on the job row. An
// overlapping fire for the same job id is skipped, not queued.
func (r *Runner) Run(ctx context.Context, job *models.SchedulerJob, secret string) Outcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.Run")
	defer span.Finish()
	tracing.TagComponentCronJob(span)
	tracing.TagJobName(span, job.JobName)

	if _, loaded := r.inflight.LoadOrStore(job.ID, struct{}{}); loaded {
		r.log.Warnf("Job %q (%d) is still running, skipping this fire", job.JobName, job.ID)
		span.SetTag("skipped", true)
		return Outcome{Skipped: true}
	}
	defer r.inflight.Delete(job.ID)

	runAt := time.Now()
	outcome := r.launch(ctx, job, secret)

	span.SetTag("status", outcome.Status.String())
	r.record(job, runAt, outcome)
	return outcome
}

func (r *Runner) launch(ctx context.Context, job *models.SchedulerJob, secret string) Outcome {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := strings.Fields(job.Command)
	cmd := exec.CommandContext(runCtx, r.program, args...)

	// The secret travels only on this child's environment, never on the
	// command line where other processes could read it.
	cmd.Env = append(os.Environ(), config.MasterKeyEnvVar+"="+secret)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Infof("Running job %q (%d): %s", job.JobName, job.ID, job.Command)
	err := cmd.Run()

	runLog := fmt.Sprintf("--- STDOUT ---\n%s\n\n--- STDERR ---\n%s", stdout.String(), stderr.String())

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		runLog += fmt.Sprintf("\n\n--- TIMEOUT ---\n%s: terminated after %s", opsdesk_errors.ErrJobTimeout, r.timeout)
		return Outcome{Status: enum.JobStatusFailure, Log: runLog, TimedOut: true}
	case err != nil:
		runLog += fmt.Sprintf("\n\n--- ERROR ---\n%v", err)
		return Outcome{Status: enum.JobStatusFailure, Log: runLog}
	default:
		return Outcome{Status: enum.JobStatusSuccess, Log: runLog}
	}
}

// record persists the run outcome. A failure here goes to the operator log
// only; it must never crash the scheduler.
func (r *Runner) record(job *models.SchedulerJob, runAt time.Time, outcome Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := r.jobRepo.RecordRun(ctx, job.ID, runAt, outcome.Status, outcome.Log); err != nil {
		r.log.Errorf("Failed to record run of job %q (%d): %v", job.JobName, job.ID, err)
		return
	}

	r.log.Infof("Finished job %q (%d) with status: %s", job.JobName, job.ID, outcome.Status)
}
