package slotlockRepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slotlockRepo "fieldbook/database/repository/slotlock"
	"fieldbook/models"
)

const (
	testField = "FLD-1"
	testDate  = "2026-09-14"
)

var (
	tenAM    = models.TimeOfDay(600)
	elevenAM = models.TimeOfDay(660)
)

func TestAcquireExclusivity(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	lock, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "user-a", lock.HolderID)

	_, err = repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-b", time.Minute)
	var conflict *slotlockRepo.LockConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "user-a", conflict.HolderID)
}

func TestAcquireConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	const holders = 20
	var wg sync.WaitGroup
	results := make(chan error, holders)
	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM,
				string(rune('a'+n)), time.Minute)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		if err == nil {
			won++
			continue
		}
		var conflict *slotlockRepo.LockConflictError
		require.True(t, errors.As(err, &conflict))
		lost++
	}
	assert.Equal(t, 1, won, "exactly one holder must win the slot")
	assert.Equal(t, holders-1, lost)
}

func TestAcquireRefreshesOwnLock(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	first, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)

	second, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestAcquireReplacesExpiredLock(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", -time.Second)
	require.NoError(t, err)

	lock, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "user-b", lock.HolderID)
}

func TestAcquireNormalizesDate(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, "2026-09-14T08:30:00Z", tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)

	_, err = repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-b", time.Minute)
	var conflict *slotlockRepo.LockConflictError
	assert.True(t, errors.As(err, &conflict), "timestamp and plain date must hit the same key")
}

func TestIsLockedByOther(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)

	locked, holder, err := repo.IsLockedByOther(ctx, testField, testDate, tenAM, "user-b")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, "user-a", holder)

	locked, _, err = repo.IsLockedByOther(ctx, testField, testDate, tenAM, "user-a")
	require.NoError(t, err)
	assert.False(t, locked, "a holder's own lock does not block them")

	locked, _, err = repo.IsLockedByOther(ctx, testField, testDate, elevenAM, "user-b")
	require.NoError(t, err)
	assert.False(t, locked, "a different start slot is free")
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, "user-a", testField, testDate))
	require.NoError(t, repo.Release(ctx, "user-a", testField, testDate))

	locked, _, err := repo.IsLockedByOther(ctx, testField, testDate, tenAM, "user-b")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestReleaseOnlyRemovesOwnLocks(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", time.Minute)
	require.NoError(t, err)
	_, err = repo.Acquire(ctx, testField, testDate, elevenAM, elevenAM+60, "user-b", time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, "user-a", testField, testDate))

	active, err := repo.ListActive(ctx, testField, testDate)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "user-b", active[0].HolderID)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", -time.Second)
	require.NoError(t, err)
	_, err = repo.Acquire(ctx, testField, testDate, elevenAM, elevenAM+60, "user-b", time.Hour)
	require.NoError(t, err)

	removed, err := repo.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	active, err := repo.ListActive(ctx, testField, testDate)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "user-b", active[0].HolderID)

	// A second pass finds nothing left to remove.
	removed, err = repo.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestListActiveExcludesExpired(t *testing.T) {
	ctx := context.Background()
	repo := slotlockRepo.NewMemorySlotLockRepo()

	_, err := repo.Acquire(ctx, testField, testDate, tenAM, elevenAM, "user-a", -time.Second)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, testField, testDate)
	require.NoError(t, err)
	assert.Empty(t, active)
}
