package memory

import (
	"context"
	"sync"
	"time"

	"storeledger/internal/core/apperror"
	"storeledger/internal/domain/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

type idemRecord struct {
	scope       string
	requestHash string
	status      idempotency.Status
	replay      idempotency.Replay
	updatedAt   time.Time
}

// IdempotencyStore keeps idempotency keys in a map.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]*idemRecord
	now  func() time.Time
}

// NewIdempotencyStore creates an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]*idemRecord), now: time.Now}
}

func (s *IdempotencyStore) Acquire(ctx context.Context, key, scope, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.keys[key]
	if !ok || (rec.status == idempotency.StatusPending && now.Sub(rec.updatedAt) > idempotency.StaleAfter) {
		s.keys[key] = &idemRecord{scope: scope, requestHash: requestHash, status: idempotency.StatusPending, updatedAt: now}
		return nil, nil
	}
	if rec.scope != scope || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if rec.status == idempotency.StatusPending {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	replay := rec.replay
	return replay.Normalize(), nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp idempotency.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.keys[key]; ok {
		rec.status = idempotency.StatusCompleted
		rec.replay = resp
		rec.updatedAt = s.now()
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.keys[key]; ok && rec.status == idempotency.StatusPending {
		delete(s.keys, key)
	}
	return nil
}
