package models

import "time"

// Field represents a bookable fenced outdoor field.
type Field struct {
	ID             string    `bson:"id" json:"id"`
	OwnerID        string    `bson:"ownerId" json:"ownerId"`
	Name           string    `bson:"name" json:"name"`
	SessionMinutes int       `bson:"sessionMinutes" json:"sessionMinutes"` // fixed visit length
	BufferMinutes  int       `bson:"bufferMinutes" json:"bufferMinutes"`   // display-only gap shown between visits
	HourlyRate     float64   `bson:"hourlyRate" json:"hourlyRate"`         // price per dog per hour
	Currency       string    `bson:"currency" json:"currency"`
	MaxDogs        int       `bson:"maxDogs" json:"maxDogs"`
	Active         bool      `bson:"active" json:"active"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// VisitPrice computes the price of one visit: hourly rate x session length x dog count.
// The display buffer is never part of pricing or overlap checks.
func (f *Field) VisitPrice(dogCount int) float64 {
	return f.HourlyRate * float64(f.SessionMinutes) / 60.0 * float64(dogCount)
}
