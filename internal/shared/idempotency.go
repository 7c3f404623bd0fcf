package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates a duplicate idempotency key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists processed request keys.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert ensures key uniqueness per endpoint.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, endpoint string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if endpoint == "" {
		return errors.New("idempotency endpoint required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, endpoint, created_at) VALUES ($1, $2, $3)`, key, endpoint, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}
