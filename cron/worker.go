package cron

import (
	"context"
	"sync"
	"time"

	slotlockRepo "fieldbook/database/repository/slotlock"
	"fieldbook/utils"

	"go.uber.org/zap"
)

// RetrySweeper is the slice of the lifecycle engine the worker drives.
type RetrySweeper interface {
	RunRetrySweep(ctx context.Context) (int, error)
}

// SweepWorker owns the periodic maintenance passes: purging expired slot locks
// and the daily out-of-band payment retry. It is created and stopped by the
// process lifecycle so tests can start and stop it deterministically; there is
// no module-level timer. All sweep failures are logged and swallowed; a failed
// pass just leaves work for the next tick.
type SweepWorker struct {
	Locks         slotlockRepo.SlotLockRepository
	Subscriptions RetrySweeper
	LockInterval  time.Duration
	RetryInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start launches the sweep loops. The slot-lock sweep also runs once eagerly
// so a restart clears stale locks immediately.
func (w *SweepWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.runLockSweep(ctx)
	go w.runRetrySweep(ctx)
}

// Stop cancels the loops and waits for them to drain.
func (w *SweepWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *SweepWorker) runLockSweep(ctx context.Context) {
	defer w.wg.Done()
	logger := utils.GetLogger()

	w.sweepLocks(ctx, logger)

	ticker := time.NewTicker(w.LockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepLocks(ctx, logger)
		}
	}
}

func (w *SweepWorker) sweepLocks(ctx context.Context, logger *zap.Logger) {
	count, err := w.Locks.Sweep(ctx)
	if err != nil {
		logger.Error("slot lock sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("swept expired slot locks", zap.Int64("removed", count))
	}
}

func (w *SweepWorker) runRetrySweep(ctx context.Context) {
	defer w.wg.Done()
	logger := utils.GetLogger()

	ticker := time.NewTicker(w.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Subscriptions.RunRetrySweep(ctx); err != nil {
				logger.Error("subscription retry sweep failed", zap.Error(err))
			}
		}
	}
}
