package redis_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/retailledger/internal/adapter/redis"
	"github.com/neomorfeo/retailledger/internal/adapter/sqlite"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// newClient connects to the server named by REDIS_ADDRESS and skips otherwise.
func newClient(t *testing.T) *goredis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	client, err := redis.Connect(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// uniqueTenant keeps runs against a shared server independent.
func uniqueTenant() string {
	return "owner-" + ulid.Make().String()
}

func TestSequences_NextIsDenseUnderConcurrency(t *testing.T) {
	client := newClient(t)
	seq := redis.NewSequences(client, nil)
	ctx := context.Background()
	tenant := uniqueTenant()

	const n = 50
	values := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, tenant, domain.SeriesOrder)
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, n)
	for v := range values {
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
	for want := int64(1); want <= n; want++ {
		assert.True(t, seen[want], "missing value %d", want)
	}

	current, err := seq.Current(ctx, tenant, domain.SeriesOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(n), current)
}

func TestSequences_SeriesAndTenantsAreIndependent(t *testing.T) {
	client := newClient(t)
	seq := redis.NewSequences(client, nil)
	ctx := context.Background()
	a, b := uniqueTenant(), uniqueTenant()

	for range 3 {
		_, err := seq.Next(ctx, a, domain.SeriesOrder)
		require.NoError(t, err)
	}

	v, err := seq.Next(ctx, a, domain.SeriesCustomer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = seq.Next(ctx, b, domain.SeriesOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

// fixedSeeder reports a fixed highest value per series and counts lookups.
type fixedSeeder struct {
	mu      sync.Mutex
	highest map[domain.Series]int64
	calls   int
}

func (f *fixedSeeder) Highest(_ context.Context, _ string, series domain.Series) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.highest[series], nil
}

func TestSequences_SeedsMissingCounterFromStore(t *testing.T) {
	client := newClient(t)
	seeder := &fixedSeeder{highest: map[domain.Series]int64{domain.SeriesOrder: 2}}
	seq := redis.NewSequences(client, seeder)
	ctx := context.Background()
	tenant := uniqueTenant()

	for want := int64(3); want <= 5; want++ {
		v, err := seq.Next(ctx, tenant, domain.SeriesOrder)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 1, seeder.calls, "an existing counter is not reseeded")

	v, err := seq.Next(ctx, tenant, domain.SeriesCustomer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSequences_ConcurrentSeedingStaysDense(t *testing.T) {
	client := newClient(t)
	seq := redis.NewSequences(client, &fixedSeeder{highest: map[domain.Series]int64{domain.SeriesOrder: 10}})
	ctx := context.Background()
	tenant := uniqueTenant()

	const n = 20
	values := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, tenant, domain.SeriesOrder)
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, n)
	for v := range values {
		seen[v] = true
	}
	for want := int64(11); want <= 10+n; want++ {
		assert.True(t, seen[want], "missing value %d", want)
	}
	assert.Len(t, seen, n)
}

func TestSequences_ContinueAfterStoredOrders(t *testing.T) {
	client := newClient(t)
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	tenant := uniqueTenant()

	// Numbers issued by the SQLite allocator before switching backends.
	for range 2 {
		_, err := store.Sequences().Next(ctx, tenant, domain.SeriesOrder)
		require.NoError(t, err)
	}

	seq := redis.NewSequences(client, store.Sequences())
	v, err := seq.Next(ctx, tenant, domain.SeriesOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestLocker_ExcludesSecondHolder(t *testing.T) {
	client := newClient(t)
	locker := redis.NewLocker(client)
	key := "order:" + uniqueTenant() + ":INV-0001"

	release, err := locker.Acquire(context.Background(), key, 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, key, 5*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStatusConflict), "got %v", err)

	require.NoError(t, release(context.Background()))

	release, err = locker.Acquire(context.Background(), key, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestLocker_ReleaseAfterExpiryIsNotAnError(t *testing.T) {
	client := newClient(t)
	locker := redis.NewLocker(client)
	key := "order:" + uniqueTenant() + ":INV-0002"

	release, err := locker.Acquire(context.Background(), key, 50*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	assert.NoError(t, release(context.Background()))
}
