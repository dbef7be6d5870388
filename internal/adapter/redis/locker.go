package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: Locker implements domain.Locker.
var _ domain.Locker = (*Locker)(nil)

const defaultRetryInterval = 50 * time.Millisecond

// Locker serializes work on a key across processes with redislock.
type Locker struct {
	client *redislock.Client
	retry  time.Duration
}

// NewLocker creates a distributed locker on top of client.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: redislock.New(client), retry: defaultRetryInterval}
}

// Acquire blocks until the lock on key is held or ctx ends. Without a deadline on
// ctx, waiting is bounded by ttl. A lock that cannot be obtained in time is
// reported as domain.ErrStatusConflict.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrStatusConflict, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("releasing lock %s: %w", key, err)
		}
		return nil
	}, nil
}
