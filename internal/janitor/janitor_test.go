package janitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	mu     sync.Mutex
	sweeps int
	grace  time.Duration
}

func (f *fakeSweeper) FailStaleJobs(_ context.Context, grace time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	f.grace = grace
	return 1, nil
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestRunSweepsImmediatelyAndPeriodically(t *testing.T) {
	sweeper := &fakeSweeper{}
	j := New(sweeper, zap.NewNop(), 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return sweeper.count() >= 3 },
		time.Second, 5*time.Millisecond)

	cancel()
	<-done

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.Equal(t, time.Hour, sweeper.grace)
}

func TestNewDefaults(t *testing.T) {
	j := New(&fakeSweeper{}, zap.NewNop(), 0, 0)
	assert.Equal(t, time.Minute, j.interval)
	assert.Equal(t, 30*time.Minute, j.grace)
}
