package booking

import (
	"context"
	"fmt"

	bookingRepo "fieldbook/database/repository/booking"
	slotlockRepo "fieldbook/database/repository/slotlock"
	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
)

// AvailabilityQuery describes the slot being probed and what to exclude from
// the conflict checks.
type AvailabilityQuery struct {
	FieldID string
	Date    string // "YYYY-MM-DD"
	Start   models.TimeOfDay
	End     models.TimeOfDay
	// ExcludeBookingID skips one booking from the overlap check, e.g. when
	// rescheduling it.
	ExcludeBookingID string
	// ExcludeSubscriptionID skips one subscription from the competing-
	// subscription check, e.g. the one being generated for.
	ExcludeSubscriptionID string
	// ExcludeHolderID treats locks held by this holder as the caller's own.
	ExcludeHolderID string
}

// AvailabilityChecker decides whether a time range on a field is free,
// considering confirmed bookings, live slot locks held by others, and other
// active subscriptions slated to produce a booking that day.
type AvailabilityChecker struct {
	Bookings      bookingRepo.BookingRepository
	Locks         slotlockRepo.SlotLockRepository
	Subscriptions subscriptionRepo.SubscriptionRepository
}

// IsAvailable returns whether the range is free and, when it is not, the first
// violated reason. It never partially succeeds.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, q AvailabilityQuery) (bool, string, error) {
	booked, err := c.Bookings.GetActiveByFieldAndDate(ctx, q.FieldID, q.Date)
	if err != nil {
		return false, "", fmt.Errorf("availability: booking lookup failed: %w", err)
	}
	for _, b := range booked {
		if b.ID == q.ExcludeBookingID {
			continue
		}
		if models.Overlaps(q.Start, q.End, b.Start, b.End) {
			return false, fmt.Sprintf("booked %s-%s", b.Start, b.End), nil
		}
	}

	locked, holder, err := c.Locks.IsLockedByOther(ctx, q.FieldID, q.Date, q.Start, q.ExcludeHolderID)
	if err != nil {
		return false, "", fmt.Errorf("availability: lock probe failed: %w", err)
	}
	if locked {
		return false, fmt.Sprintf("held by another customer (%s)", holder), nil
	}

	subs, err := c.Subscriptions.ListActiveByField(ctx, q.FieldID)
	if err != nil {
		return false, "", fmt.Errorf("availability: subscription lookup failed: %w", err)
	}
	for i := range subs {
		sub := &subs[i]
		if sub.ID == q.ExcludeSubscriptionID || !sub.OccursOn(q.Date) {
			continue
		}
		for _, slot := range sub.Slots {
			if models.Overlaps(q.Start, q.End, slot.Start, slot.End) {
				return false, fmt.Sprintf("reserved by recurring booking %s", sub.ID), nil
			}
		}
	}

	return true, "", nil
}
