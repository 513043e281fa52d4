// Package janitor reconciles jobs orphaned by a process crash. A job
// left in processing cannot finish on its own; after a grace period it
// is marked failed so pollers stop seeing phantom progress.
package janitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type JobSweeper interface {
	FailStaleJobs(ctx context.Context, grace time.Duration) (int64, error)
}

type Janitor struct {
	store    JobSweeper
	log      *zap.Logger
	interval time.Duration
	grace    time.Duration
}

func New(store JobSweeper, log *zap.Logger, interval, grace time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if grace <= 0 {
		grace = 30 * time.Minute
	}

	return &Janitor{store: store, log: log, interval: interval, grace: grace}
}

// Run sweeps until ctx is canceled. One sweep runs immediately so a
// restart cleans up right away instead of waiting a full interval.
func (j *Janitor) Run(ctx context.Context) {
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.store.FailStaleJobs(ctx, j.grace)
	if err != nil {
		j.log.Error("stale job sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Warn("failed stale processing jobs",
			zap.Int64("count", n),
			zap.Duration("grace", j.grace),
		)
	}
}
