package jobs

import (
	"context"
)

// SessionCache is implemented by *screener.Cache
type SessionCache interface {
	ClearChains()
	ClearSpreads()
}

// SessionResetJob drops the loaded chains and screened spreads after the
// close so the next session starts from fresh quotes
type SessionResetJob struct {
	cache    SessionCache
	schedule string
}

// NewSessionResetJob creates the job; empty schedule = 18:00 on weekdays
func NewSessionResetJob(cache SessionCache, schedule string) *SessionResetJob {
	if schedule == "" {
		schedule = "0 0 18 * * 1-5"
	}
	return &SessionResetJob{cache: cache, schedule: schedule}
}

// Name returns the job name
func (j *SessionResetJob) Name() string {
	return "session_reset"
}

// Schedule returns the cron schedule
func (j *SessionResetJob) Schedule() string {
	return j.schedule
}

// Run clears the session cache
func (j *SessionResetJob) Run(ctx context.Context) error {
	j.cache.ClearChains()
	j.cache.ClearSpreads()
	return nil
}
