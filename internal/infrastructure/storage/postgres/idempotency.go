package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"storeledger/internal/core/apperror"
	"storeledger/internal/domain/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

// idempotencyRecord is a row of ledger_idempotency.
type idempotencyRecord struct {
	Key         string             `db:"idempotency_key"`
	Scope       string             `db:"scope"`
	Status      idempotency.Status `db:"status"`
	RequestHash string             `db:"request_hash"`
	Response    []byte             `db:"response"`
	StatusCode  *int               `db:"response_status"`
	ContentType *string            `db:"response_content_type"`
	UpdatedAt   time.Time          `db:"updated_at"`
	ExpiresAt   time.Time          `db:"expires_at"`
}

// IdempotencyStore keeps idempotency keys in PostgreSQL.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

// Acquire implements idempotency.Store.
func (s *IdempotencyStore) Acquire(ctx context.Context, key, scope, requestHash string) (*idempotency.Replay, error) {
	now := s.now().UTC()
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx, `
		INSERT INTO ledger_idempotency (idempotency_key, scope, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, scope, idempotency.StatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var rec idempotencyRecord
	err = pgxscan.Get(ctx, q, &rec, `
		SELECT idempotency_key, scope, status, request_hash, response,
		       response_status, response_content_type, updated_at, expires_at
		FROM ledger_idempotency
		WHERE idempotency_key = $1
	`, key)
	if err != nil {
		if pgxscan.NotFound(err) {
			// Deleted between the insert and the read; let the client retry.
			return nil, apperror.NewIdempotencyConflict(key)
		}
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}

	expired := now.After(rec.ExpiresAt)
	stale := rec.Status == idempotency.StatusPending && now.Sub(rec.UpdatedAt) > idempotency.StaleAfter
	if expired || stale {
		return nil, s.reclaim(ctx, key, scope, requestHash, now)
	}

	if rec.Scope != scope || rec.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_scope", rec.Scope).
			WithDetail("request_scope", scope)
	}

	switch rec.Status {
	case idempotency.StatusCompleted:
		replay := &idempotency.Replay{Body: rec.Response}
		if rec.StatusCode != nil {
			replay.StatusCode = *rec.StatusCode
		}
		if rec.ContentType != nil {
			replay.ContentType = *rec.ContentType
		}
		return replay.Normalize(), nil
	case idempotency.StatusPending:
		return nil, apperror.NewIdempotencyConflict(key)
	default:
		return nil, fmt.Errorf("idempotency key %s has unknown status %q", key, rec.Status)
	}
}

func (s *IdempotencyStore) reclaim(ctx context.Context, key, scope, requestHash string, now time.Time) error {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE ledger_idempotency
		SET scope = $2, status = $3, request_hash = $4, response = NULL,
		    response_status = NULL, response_content_type = NULL,
		    updated_at = $5, expires_at = $6
		WHERE idempotency_key = $1
	`, key, scope, idempotency.StatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("reclaim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewIdempotencyConflict(key)
	}
	return nil
}

// Complete implements idempotency.Store.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp idempotency.Replay) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE ledger_idempotency
		SET status = $2, response = $3, response_status = $4,
		    response_content_type = $5, updated_at = $6
		WHERE idempotency_key = $1
	`, key, idempotency.StatusCompleted, resp.Body, resp.StatusCode, resp.ContentType, s.now().UTC())
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release implements idempotency.Store.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM ledger_idempotency WHERE idempotency_key = $1 AND status = $2`,
		key, idempotency.StatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM ledger_idempotency WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
