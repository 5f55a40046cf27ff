package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/models"
)

type recordedRun struct {
	id     int64
	status enum.JobStatus
	runLog string
}

type fakeJobRepo struct {
	mu        sync.Mutex
	runs      []recordedRun
	recordErr error
}

func (f *fakeJobRepo) List(ctx context.Context) ([]*models.SchedulerJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) ListEnabled(ctx context.Context) ([]*models.SchedulerJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id int64) (*models.SchedulerJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) RecordRun(ctx context.Context, id int64, runAt time.Time, status enum.JobStatus, runLog string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.runs = append(f.runs, recordedRun{id: id, status: status, runLog: runLog})
	return nil
}

func (f *fakeJobRepo) recorded() []recordedRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRun, len(f.runs))
	copy(out, f.runs)
	return out
}

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	l.InitLogger()
	return l
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newTestRunner(t *testing.T, repo *fakeJobRepo, program string, timeout time.Duration) *Runner {
	t.Helper()
	r, err := NewRunner(repo, testLogger(), RunnerOptions{Program: program, Timeout: timeout})
	require.NoError(t, err)
	return r
}

func TestRunner_Success(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "echo job output\nexit 0\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	job := &models.SchedulerJob{ID: 1, JobName: "Email Watcher"}
	outcome := r.Run(context.Background(), job, "s3cret")

	assert.Equal(t, enum.JobStatusSuccess, outcome.Status)
	assert.False(t, outcome.Skipped)
	assert.Contains(t, outcome.Log, "--- STDOUT ---")
	assert.Contains(t, outcome.Log, "job output")

	runs := repo.recorded()
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1), runs[0].id)
	assert.Equal(t, enum.JobStatusSuccess, runs[0].status)
}

func TestRunner_NonZeroExitIsFailure(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "echo boom >&2\nexit 3\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	job := &models.SchedulerJob{ID: 2, JobName: "Email Watcher"}
	outcome := r.Run(context.Background(), job, "s3cret")

	assert.Equal(t, enum.JobStatusFailure, outcome.Status)
	assert.False(t, outcome.TimedOut)
	assert.Contains(t, outcome.Log, "--- STDERR ---")
	assert.Contains(t, outcome.Log, "boom")
	assert.Contains(t, outcome.Log, "--- ERROR ---")

	runs := repo.recorded()
	require.Len(t, runs, 1)
	assert.Equal(t, enum.JobStatusFailure, runs[0].status)
}

func TestRunner_SecretReachesChildEnvironment(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "printf '%s' \"$OPSDESK_MASTER_KEY\"\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	job := &models.SchedulerJob{ID: 3, JobName: "Email Watcher"}
	outcome := r.Run(context.Background(), job, "correct-horse")

	assert.Equal(t, enum.JobStatusSuccess, outcome.Status)
	assert.Contains(t, outcome.Log, "correct-horse")
}

func TestRunner_Timeout(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "sleep 30\n")
	r := newTestRunner(t, repo, script, 200*time.Millisecond)

	job := &models.SchedulerJob{ID: 4, JobName: "Email Watcher"}
	start := time.Now()
	outcome := r.Run(context.Background(), job, "s3cret")

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, enum.JobStatusFailure, outcome.Status)
	assert.True(t, outcome.TimedOut)
	assert.Contains(t, outcome.Log, "--- TIMEOUT ---")
	assert.Contains(t, outcome.Log, "wall-clock timeout")

	runs := repo.recorded()
	require.Len(t, runs, 1)
	assert.Equal(t, enum.JobStatusFailure, runs[0].status)
}

func TestRunner_OverlappingFireSkipped(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "sleep 1\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	job := &models.SchedulerJob{ID: 5, JobName: "Email Watcher"}

	done := make(chan Outcome, 1)
	go func() {
		done <- r.Run(context.Background(), job, "s3cret")
	}()

	time.Sleep(200 * time.Millisecond)
	second := r.Run(context.Background(), job, "s3cret")
	assert.True(t, second.Skipped)

	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, enum.JobStatusSuccess, first.Status)

	// Only the run that actually executed was recorded.
	assert.Len(t, repo.recorded(), 1)
}

func TestRunner_DifferentJobsRunConcurrently(t *testing.T) {
	repo := &fakeJobRepo{}
	script := writeScript(t, "sleep 1\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	done := make(chan Outcome, 1)
	go func() {
		done <- r.Run(context.Background(), &models.SchedulerJob{ID: 6, JobName: "Email Watcher"}, "s3cret")
	}()

	time.Sleep(200 * time.Millisecond)
	other := r.Run(context.Background(), &models.SchedulerJob{ID: 7, JobName: "Ticket Summarizer"}, "s3cret")
	assert.False(t, other.Skipped)

	first := <-done
	assert.False(t, first.Skipped)
	assert.Len(t, repo.recorded(), 2)
}

func TestRunner_RecordFailureDoesNotPanic(t *testing.T) {
	repo := &fakeJobRepo{recordErr: errors.New("disk gone")}
	script := writeScript(t, "exit 0\n")
	r := newTestRunner(t, repo, script, 10*time.Second)

	job := &models.SchedulerJob{ID: 8, JobName: "Email Watcher"}
	outcome := r.Run(context.Background(), job, "s3cret")

	assert.Equal(t, enum.JobStatusSuccess, outcome.Status)
	assert.Empty(t, repo.recorded())
}
