// Package id provides UUIDv7 generation for ledger entries and batches.
// UUIDv7 embeds a millisecond Unix timestamp in its first 48 bits followed by
// random bits, so ids sort by creation time without a central sequence.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used for entry, batch and reference ids.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.New()
	}
	return v
}

// NewString generates a UUIDv7 in its canonical string form.
func NewString() string {
	return New().String()
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}
