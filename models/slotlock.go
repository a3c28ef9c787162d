package models

import "time"

// SlotLock is an ephemeral claim on a slot while a payment round-trip is in
// flight. Expired locks are inert; the periodic sweep purges them.
type SlotLock struct {
	ID        string    `bson:"id" json:"id"`
	FieldID   string    `bson:"fieldId" json:"fieldId"`
	Date      string    `bson:"date" json:"date"` // "YYYY-MM-DD", i.e. normalized to midnight
	Start     TimeOfDay `bson:"start" json:"start"`
	End       TimeOfDay `bson:"end" json:"end"`
	HolderID  string    `bson:"holderId" json:"holderId"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the lock no longer counts for conflict checks.
func (l *SlotLock) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}
