package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/spreadscreener/internal/trades"
	"github.com/wonny/spreadscreener/pkg/logger"
)

type fakeRefresher struct {
	summary trades.RefreshSummary
	err     error
}

func (f fakeRefresher) RefreshAll(ctx context.Context) (trades.RefreshSummary, error) {
	return f.summary, f.err
}

func TestTradesRefreshJob(t *testing.T) {
	tests := []struct {
		name    string
		r       fakeRefresher
		wantErr bool
	}{
		{"all refreshed", fakeRefresher{summary: trades.RefreshSummary{Refreshed: 2, Expired: 1}}, false},
		{"partial failure", fakeRefresher{summary: trades.RefreshSummary{Refreshed: 1, Failed: 1}}, false},
		{"nothing to do", fakeRefresher{summary: trades.RefreshSummary{Skipped: 3}}, false},
		{"providers down", fakeRefresher{summary: trades.RefreshSummary{Failed: 2}}, true},
		{"store error", fakeRefresher{err: errors.New("disk")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewTradesRefreshJob(tt.r, "0 */15 9-17 * * 1-5", logger.Nop())
			assert.Equal(t, "trades_refresh", job.Name())
			assert.Equal(t, "0 */15 9-17 * * 1-5", job.Schedule())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeSession struct{ chains, spreads int }

func (f *fakeSession) ClearChains()  { f.chains++ }
func (f *fakeSession) ClearSpreads() { f.spreads++ }

func TestSessionResetJob(t *testing.T) {
	cache := &fakeSession{}
	job := NewSessionResetJob(cache, "")

	assert.Equal(t, "0 0 18 * * 1-5", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cache.chains)
	assert.Equal(t, 1, cache.spreads)
}
