package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: Sequences implements domain.SequenceAllocator.
var _ domain.SequenceAllocator = (*Sequences)(nil)

// incrExisting bumps a counter only if it is already present and returns -1
// otherwise, so a missing counter can be seeded before its first increment.
var incrExisting = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('INCR', KEYS[1])
`)

// Sequences allocates per-tenant counters with INCR. Values are unique and
// increasing, but a number drawn by a transaction that later rolls back is not
// returned, so series may have gaps.
//
// A counter missing from Redis (first switch from another backend, or a
// flushed server) is seeded from the seeder before it is incremented, so new
// numbers continue after the codes already stored.
type Sequences struct {
	client redis.UniversalClient
	seeder domain.SequenceSeeder
}

// NewSequences creates a Redis-backed sequence allocator. seeder may be nil,
// in which case missing counters start at zero.
func NewSequences(client redis.UniversalClient, seeder domain.SequenceSeeder) *Sequences {
	return &Sequences{client: client, seeder: seeder}
}

// Next increments and returns the counter for (tenantID, series).
func (s *Sequences) Next(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	key := sequenceKey(tenantID, series)

	value, err := incrExisting.Run(ctx, s.client, []string{key}).Int64()
	if err != nil {
		return 0, fmt.Errorf("incrementing %s sequence: %w", series, err)
	}
	if value >= 0 {
		return value, nil
	}

	if err := s.seed(ctx, key, tenantID, series); err != nil {
		return 0, err
	}

	value, err = s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing %s sequence: %w", series, err)
	}
	return value, nil
}

// seed stores the highest known number under key unless another caller got
// there first. Concurrent seeders compute the same value, and SET NX lets
// exactly one of them write it.
func (s *Sequences) seed(ctx context.Context, key, tenantID string, series domain.Series) error {
	var start int64
	if s.seeder != nil {
		highest, err := s.seeder.Highest(ctx, tenantID, series)
		if err != nil {
			return fmt.Errorf("seeding %s sequence: %w", series, err)
		}
		start = highest
	}

	if err := s.client.SetNX(ctx, key, start, 0).Err(); err != nil {
		return fmt.Errorf("seeding %s sequence: %w", series, err)
	}
	return nil
}

// Current returns the last allocated value, or 0 when nothing was allocated yet.
func (s *Sequences) Current(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	value, err := s.client.Get(ctx, sequenceKey(tenantID, series)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s sequence: %w", series, err)
	}
	return value, nil
}

func sequenceKey(tenantID string, series domain.Series) string {
	return fmt.Sprintf("seq:%s:%s", tenantID, series)
}
