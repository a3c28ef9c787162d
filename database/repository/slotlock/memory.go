// File: database/repository/slotlock/memory.go
package slotlockRepo

import (
	"context"
	"sync"
	"time"

	"fieldbook/models"

	"github.com/google/uuid"
)

type slotKey struct {
	fieldID string
	date    string
	start   models.TimeOfDay
}

// memorySlotLockRepo is a mutex-guarded in-memory SlotLockRepository for local
// development and tests. The check-and-set in Acquire happens under one lock,
// matching the atomicity contract of the Mongo implementation.
type memorySlotLockRepo struct {
	mu    sync.Mutex
	locks map[slotKey]models.SlotLock
}

// NewMemorySlotLockRepo constructs an in-memory SlotLockRepository.
func NewMemorySlotLockRepo() SlotLockRepository {
	return &memorySlotLockRepo{locks: make(map[slotKey]models.SlotLock)}
}

func (r *memorySlotLockRepo) Acquire(_ context.Context, fieldID, date string, start, end models.TimeOfDay, holderID string, ttl time.Duration) (*models.SlotLock, error) {
	day, err := models.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey{fieldID: fieldID, date: day, start: start}
	if existing, ok := r.locks[key]; ok && existing.HolderID != holderID && !existing.Expired(now) {
		return nil, &LockConflictError{HolderID: existing.HolderID}
	}

	lock := models.SlotLock{
		ID:        uuid.New().String(),
		FieldID:   fieldID,
		Date:      day,
		Start:     start,
		End:       end,
		HolderID:  holderID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	r.locks[key] = lock
	return &lock, nil
}

func (r *memorySlotLockRepo) Release(_ context.Context, holderID, fieldID, date string) error {
	day, err := models.NormalizeDate(date)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, lock := range r.locks {
		if lock.HolderID == holderID && key.fieldID == fieldID && key.date == day {
			delete(r.locks, key)
		}
	}
	return nil
}

func (r *memorySlotLockRepo) IsLockedByOther(_ context.Context, fieldID, date string, start models.TimeOfDay, excludeHolderID string) (bool, string, error) {
	day, err := models.NormalizeDate(date)
	if err != nil {
		return false, "", err
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[slotKey{fieldID: fieldID, date: day, start: start}]
	if !ok || lock.Expired(now) || lock.HolderID == excludeHolderID {
		return false, "", nil
	}
	return true, lock.HolderID, nil
}

func (r *memorySlotLockRepo) ListActive(_ context.Context, fieldID, date string) ([]models.SlotLock, error) {
	day, err := models.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	var active []models.SlotLock
	for key, lock := range r.locks {
		if key.fieldID == fieldID && key.date == day && !lock.Expired(now) {
			active = append(active, lock)
		}
	}
	return active, nil
}

func (r *memorySlotLockRepo) Sweep(_ context.Context) (int64, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for key, lock := range r.locks {
		if lock.Expired(now) {
			delete(r.locks, key)
			removed++
		}
	}
	return removed, nil
}
