package cron

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/jobs"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/models"
)

type fakeJobRepo struct {
	mu      sync.Mutex
	enabled []*models.SchedulerJob
	runs    []int64
}

func (f *fakeJobRepo) List(ctx context.Context) ([]*models.SchedulerJob, error) {
	return f.enabled, nil
}

func (f *fakeJobRepo) ListEnabled(ctx context.Context) ([]*models.SchedulerJob, error) {
	return f.enabled, nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id int64) (*models.SchedulerJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) RecordRun(ctx context.Context, id int64, runAt time.Time, status enum.JobStatus, runLog string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, id)
	return nil
}

func (f *fakeJobRepo) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	l.InitLogger()
	return l
}

func noopProgram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func newManager(t *testing.T, repo *fakeJobRepo, grace time.Duration) *CronManager {
	t.Helper()
	runner, err := jobs.NewRunner(repo, testLogger(), jobs.RunnerOptions{
		Program: noopProgram(t),
		Timeout: 10 * time.Second,
	})
	require.NoError(t, err)
	return NewCronManager(repo, runner, testLogger(), grace)
}

func TestCronManager_ArmRegistersEnabledJobs(t *testing.T) {
	repo := &fakeJobRepo{enabled: []*models.SchedulerJob{
		{ID: 1, JobName: "Email Watcher", Command: "watch-mail", IntervalMinutes: 1, Enabled: true},
		{ID: 2, JobName: "Ticket Summarizer", Command: "summarize-tickets", IntervalMinutes: 30, Enabled: true},
	}}
	cm := newManager(t, repo, time.Hour)
	defer cm.Stop()

	require.NoError(t, cm.Arm(context.Background(), "s3cret"))

	assert.True(t, cm.Armed())
	assert.Equal(t, 2, cm.Entries())
	// Nothing fires inside the grace period.
	assert.Equal(t, 0, repo.runCount())
}

func TestCronManager_ArmIsIdempotent(t *testing.T) {
	repo := &fakeJobRepo{enabled: []*models.SchedulerJob{
		{ID: 1, JobName: "Email Watcher", Command: "watch-mail", IntervalMinutes: 1, Enabled: true},
	}}
	cm := newManager(t, repo, time.Hour)
	defer cm.Stop()

	require.NoError(t, cm.Arm(context.Background(), "s3cret"))
	require.NoError(t, cm.Arm(context.Background(), "s3cret"))

	assert.Equal(t, 1, cm.Entries())
}

func TestCronManager_NoEnabledJobs(t *testing.T) {
	repo := &fakeJobRepo{}
	cm := newManager(t, repo, time.Hour)
	defer cm.Stop()

	require.NoError(t, cm.Arm(context.Background(), "s3cret"))

	assert.True(t, cm.Armed())
	assert.Equal(t, 0, cm.Entries())
}

func TestCronManager_Stop(t *testing.T) {
	repo := &fakeJobRepo{enabled: []*models.SchedulerJob{
		{ID: 1, JobName: "Email Watcher", Command: "watch-mail", IntervalMinutes: 1, Enabled: true},
	}}
	cm := newManager(t, repo, time.Hour)

	require.NoError(t, cm.Arm(context.Background(), "s3cret"))
	cm.Stop()

	assert.False(t, cm.Armed())
	assert.Equal(t, 0, cm.Entries())
}

func TestCronManager_FiresAfterGrace(t *testing.T) {
	repo := &fakeJobRepo{enabled: []*models.SchedulerJob{
		{ID: 1, JobName: "Email Watcher", Command: "", IntervalMinutes: 60, Enabled: true},
	}}
	cm := newManager(t, repo, 200*time.Millisecond)
	defer cm.Stop()

	require.NoError(t, cm.Arm(context.Background(), "s3cret"))

	deadline := time.Now().Add(5 * time.Second)
	for repo.runCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.Equal(t, 1, repo.runCount())
}

func TestIntervalSchedule_Next(t *testing.T) {
	first := time.Date(2026, 8, 1, 12, 0, 10, 0, time.UTC)
	s := &intervalSchedule{interval: time.Minute, first: first}

	armTime := first.Add(-10 * time.Second)
	assert.Equal(t, first, s.Next(armTime))

	afterFirst := first.Add(time.Second)
	assert.Equal(t, afterFirst.Add(time.Minute), s.Next(afterFirst))
}
