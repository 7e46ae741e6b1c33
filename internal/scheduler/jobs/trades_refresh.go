package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/spreadscreener/internal/trades"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// TradeRefresher is implemented by *trades.Service
type TradeRefresher interface {
	RefreshAll(ctx context.Context) (trades.RefreshSummary, error)
}

// TradesRefreshJob re-marks open trades and moves expired ones
// ⭐ SSOT: trade 상태 전환 스케줄은 이 Job에서만
type TradesRefreshJob struct {
	trades   TradeRefresher
	schedule string
	logger   *logger.Logger
}

// NewTradesRefreshJob creates the job. schedule is a cron spec with seconds.
func NewTradesRefreshJob(t TradeRefresher, schedule string, log *logger.Logger) *TradesRefreshJob {
	return &TradesRefreshJob{
		trades:   t,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *TradesRefreshJob) Name() string {
	return "trades_refresh"
}

// Schedule returns the configured cron schedule
func (j *TradesRefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes every trade. It fails (and is retried) only when nothing
// could be refreshed, which means the providers are down.
func (j *TradesRefreshJob) Run(ctx context.Context) error {
	summary, err := j.trades.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh trades: %w", err)
	}
	if summary.Failed > 0 && summary.Refreshed+summary.Expired == 0 {
		return fmt.Errorf("refresh trades: all %d refreshes failed", summary.Failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": summary.Refreshed,
		"expired":   summary.Expired,
		"failed":    summary.Failed,
	}).Debug("Scheduled trade refresh done")
	return nil
}
