// Package idempotency defines the storage contract behind X-Idempotency-Key.
// A retried recording request with the same key replays the first response
// instead of booking the movements a second time.
package idempotency

import (
	"context"
	"net/http"
	"time"
)

// Status of a stored key.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// DefaultTTL is how long a completed response is kept for replay.
const DefaultTTL = 24 * time.Hour

// StaleAfter is how long a pending key may be held before another request
// may take it over, assuming the first one crashed.
const StaleAfter = time.Minute

// Replay is a stored HTTP response.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store persists idempotency keys.
type Store interface {
	// Acquire claims key for a request identified by scope and requestHash.
	// It returns (nil, nil) when the caller now owns the key, a Replay when
	// the key already completed, and an apperror conflict when the key is
	// in flight or was used for a different request.
	Acquire(ctx context.Context, key, scope, requestHash string) (*Replay, error)

	// Complete stores the response for later replay.
	Complete(ctx context.Context, key string, resp Replay) error

	// Release forgets a key so that the request can be retried.
	Release(ctx context.Context, key string) error
}

// Cacheable reports whether a response with this status is stored for
// replay. Server errors are not: the client should be able to retry them.
func Cacheable(status int) bool {
	return status < http.StatusInternalServerError
}

// Normalize fills defaults for replays stored without status or content type.
func (r *Replay) Normalize() *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	if r.ContentType == "" {
		r.ContentType = "application/json; charset=utf-8"
	}
	return r
}
