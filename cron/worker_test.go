package cron_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbook/cron"
	slotlockRepo "fieldbook/database/repository/slotlock"
	"fieldbook/models"
)

type countingSweeper struct {
	runs atomic.Int64
}

func (s *countingSweeper) RunRetrySweep(context.Context) (int, error) {
	s.runs.Add(1)
	return 0, nil
}

func TestSweepWorkerClearsExpiredLocksEagerly(t *testing.T) {
	ctx := context.Background()
	locks := slotlockRepo.NewMemorySlotLockRepo()
	_, err := locks.Acquire(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-a", -time.Second)
	require.NoError(t, err)

	w := &cron.SweepWorker{
		Locks:         locks,
		Subscriptions: &countingSweeper{},
		LockInterval:  time.Hour,
		RetryInterval: time.Hour,
	}
	w.Start(ctx)
	defer w.Stop()

	// The first lock sweep runs at startup, not on the first tick.
	assert.Eventually(t, func() bool {
		active, err := locks.ListActive(ctx, "FLD-1", "2026-09-14")
		return err == nil && len(active) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSweepWorkerRunsRetrySweepOnTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	w := &cron.SweepWorker{
		Locks:         slotlockRepo.NewMemorySlotLockRepo(),
		Subscriptions: sweeper,
		LockInterval:  time.Hour,
		RetryInterval: 10 * time.Millisecond,
	}
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return sweeper.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSweepWorkerStopDrains(t *testing.T) {
	w := &cron.SweepWorker{
		Locks:         slotlockRepo.NewMemorySlotLockRepo(),
		Subscriptions: &countingSweeper{},
		LockInterval:  time.Millisecond,
		RetryInterval: time.Millisecond,
	}
	w.Start(context.Background())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not drain the sweep loops")
	}
}
