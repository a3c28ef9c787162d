package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slotlockRepo "fieldbook/database/repository/slotlock"
	"fieldbook/models"
	"fieldbook/services/booking"
)

func newSlotService() (*booking.SlotService, *fakeBookingRepo) {
	bookings := &fakeBookingRepo{}
	locks := slotlockRepo.NewMemorySlotLockRepo()
	return &booking.SlotService{
		Locks:        locks,
		Availability: newChecker(bookings, locks, newFakeSubscriptionRepo()),
		LockTTL:      7 * time.Minute,
	}, bookings
}

func TestLockSlot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSlotService()

	lock, err := svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-a", lock.HolderID)
	assert.WithinDuration(t, time.Now().Add(7*time.Minute), lock.ExpiresAt, time.Minute)

	// A second customer is turned away while the hold is live.
	_, err = svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-b")
	var conflict *booking.ConflictError
	require.True(t, errors.As(err, &conflict))

	// The holder can refresh their own hold.
	_, err = svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-a")
	assert.NoError(t, err)
}

func TestLockSlotRejectsBookedRange(t *testing.T) {
	ctx := context.Background()
	svc, bookings := newSlotService()

	require.NoError(t, bookings.Create(ctx, &models.Booking{
		ID: "BK-1112", FieldID: "FLD-1", Date: "2026-09-14",
		Start: models.TimeOfDay(600), End: models.TimeOfDay(660),
		Status: models.BookingConfirmed,
	}))

	_, err := svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(630), models.TimeOfDay(690), "user-a")
	var conflict *booking.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Reason, "booked")
}

func TestReleaseSlotFreesTheHold(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSlotService()

	_, err := svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-a")
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseSlot(ctx, "user-a", "FLD-1", "2026-09-14"))
	require.NoError(t, svc.ReleaseSlot(ctx, "user-a", "FLD-1", "2026-09-14"))

	_, err = svc.LockSlot(ctx, "FLD-1", "2026-09-14",
		models.TimeOfDay(600), models.TimeOfDay(660), "user-b")
	assert.NoError(t, err)
}
