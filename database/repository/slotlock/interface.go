// File: database/repository/slotlock/interface.go
package slotlockRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/database"
	"fieldbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// LockConflictError is returned by Acquire when a non-expired lock from a
// different holder already covers the slot.
type LockConflictError struct {
	HolderID string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("slot is locked by another holder (%s)", e.HolderID)
}

// SlotLockRepository is the keyed, TTL-expiring reservation table guarding the
// interactive payment round-trip. Acquire must be a single atomic
// check-and-set at the storage layer; a read-then-write implementation is a
// correctness bug.
type SlotLockRepository interface {
	// Acquire creates or refreshes the holder's lock on (fieldID, date, start).
	// The date is normalized to midnight. It fails with *LockConflictError if a
	// non-expired lock held by a different holder exists; a holder may always
	// replace their own lock or one that has expired.
	Acquire(ctx context.Context, fieldID, date string, start, end models.TimeOfDay, holderID string, ttl time.Duration) (*models.SlotLock, error)
	// Release deletes all locks for the holder on that field and day. Idempotent.
	Release(ctx context.Context, holderID, fieldID, date string) error
	// IsLockedByOther reports whether a non-expired lock from a holder other
	// than excludeHolderID covers the slot, and by whom.
	IsLockedByOther(ctx context.Context, fieldID, date string, start models.TimeOfDay, excludeHolderID string) (bool, string, error)
	// ListActive returns the non-expired locks for a field and day.
	ListActive(ctx context.Context, fieldID, date string) ([]models.SlotLock, error)
	// Sweep deletes every lock whose expiry has passed and returns the count.
	Sweep(ctx context.Context) (int64, error)
}

type mongoSlotLockRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotLockRepo constructs a MongoDB-backed SlotLockRepository.
func NewMongoSlotLockRepo() SlotLockRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoSlotLockRepo{
		coll: db.Collection("slot_locks"),
	}
}
