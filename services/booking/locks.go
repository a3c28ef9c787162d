package booking

import (
	"context"
	"errors"
	"time"

	slotlockRepo "fieldbook/database/repository/slotlock"
	"fieldbook/models"
	"fieldbook/utils"

	"go.uber.org/zap"
)

// SlotService drives the interactive checkout path: hold a slot while the
// payment round-trip is in flight, release it on purchase or abandonment.
type SlotService struct {
	Locks        slotlockRepo.SlotLockRepository
	Availability *AvailabilityChecker
	LockTTL      time.Duration
}

// LockSlot verifies the range is free and then takes a time-boxed lock on it.
// A lock held by a different customer surfaces as *ConflictError.
func (s *SlotService) LockSlot(ctx context.Context, fieldID, date string, start, end models.TimeOfDay, holderID string) (*models.SlotLock, error) {
	free, reason, err := s.Availability.IsAvailable(ctx, AvailabilityQuery{
		FieldID:         fieldID,
		Date:            date,
		Start:           start,
		End:             end,
		ExcludeHolderID: holderID,
	})
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &ConflictError{Reason: reason}
	}

	lock, err := s.Locks.Acquire(ctx, fieldID, date, start, end, holderID, s.LockTTL)
	var conflict *slotlockRepo.LockConflictError
	if errors.As(err, &conflict) {
		// Lost the race between the availability check and the lock write.
		return nil, &ConflictError{Reason: "held by another customer"}
	}
	if err != nil {
		return nil, err
	}

	utils.GetLogger().Debug("slot locked",
		zap.String("fieldId", fieldID), zap.String("date", lock.Date),
		zap.String("start", start.String()), zap.String("holderId", holderID))
	return lock, nil
}

// ReleaseSlot drops the holder's locks for that field and day. Idempotent.
func (s *SlotService) ReleaseSlot(ctx context.Context, holderID, fieldID, date string) error {
	return s.Locks.Release(ctx, holderID, fieldID, date)
}

// ActiveLocks lists the live locks on a field for a day.
func (s *SlotService) ActiveLocks(ctx context.Context, fieldID, date string) ([]models.SlotLock, error) {
	return s.Locks.ListActive(ctx, fieldID, date)
}
