package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spreadscreener/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // runs that fail before the first success
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("provider timeout")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 */15 9-17 * * 1-5"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	_, ok := s.NextRun("a")
	assert.False(t, ok)
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.Nop(), WithRetry(3, time.Millisecond))
	job := &countingJob{name: "trades_refresh", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("trades_refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)

	history, err := s.GetJobHistory("trades_refresh")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(1, time.Millisecond))
	require.NoError(t, s.AddJob(&countingJob{name: "j", schedule: "@hourly", failures: 10}))
	require.NoError(t, s.AddJob(&countingJob{name: "ok", schedule: "@hourly"}))

	result, err := s.RunJob("j")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "provider timeout", result.Error)

	_, err = s.RunJob("ok")
	require.NoError(t, err)

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["j"].FailureCount)
	assert.Equal(t, 0.0, stats["j"].SuccessRate)
	assert.NotNil(t, stats["j"].LastFailure)
	assert.Nil(t, stats["j"].LastSuccess)
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.Equal(t, "@hourly", stats["ok"].Schedule)

	_, err = s.RunJob("missing")
	assert.Error(t, err)
}

func TestStopCancelsRetryWait(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &countingJob{name: "j", schedule: "@hourly", failures: 10}
	require.NoError(t, s.AddJob(job))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		r, _ := s.RunJob("j")
		done <- r
	}()

	require.Eventually(t, func() bool { return job.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case r := <-done:
		assert.False(t, r.Success)
		assert.Equal(t, int32(1), job.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestJobHistory_Limit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0, Attempts: i})
	}

	assert.Len(t, h.Results, historyLimit)
	latest := h.GetLatestResults(3)
	require.Len(t, latest, 3)
	assert.Equal(t, historyLimit+19, latest[2].Attempts)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(5))
}
