package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/commerce-sync/internal/infrastructure/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryStore(t *testing.T) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now), WithSweepInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

func TestMemoryStore_MarkProcessed(t *testing.T) {
	store, clock := newTestMemoryStore(t)
	ctx := context.Background()

	marked, err := store.MarkProcessed(ctx, "order:evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.MarkProcessed(ctx, "order:evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, marked, "second mark within ttl")

	clock.Advance(time.Minute)
	marked, err = store.MarkProcessed(ctx, "order:evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, marked, "expired keys can be marked again")
}

func TestMemoryStore_IsProcessed(t *testing.T) {
	store, clock := newTestMemoryStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "product:evt-2")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "product:evt-2", time.Hour)
	require.NoError(t, err)
	processed, _ = store.IsProcessed(ctx, "product:evt-2")
	assert.True(t, processed)

	clock.Advance(2 * time.Hour)
	processed, _ = store.IsProcessed(ctx, "product:evt-2")
	assert.False(t, processed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store, clock := newTestMemoryStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Len())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marked, err := store.MarkProcessed(ctx, "customer:evt-3", time.Minute)
			assert.NoError(t, err)
			if marked {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := NewMemoryStore(WithSweepInterval(time.Millisecond))
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

func TestNewIdempotencyStore_Disabled(t *testing.T) {
	store := NewIdempotencyStore(context.Background(), config.RedisConfig{}, zap.NewNop())
	defer store.Close()
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewIdempotencyStore_FallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	store := NewIdempotencyStore(context.Background(), cfg, zap.New(core))
	defer store.Close()

	assert.IsType(t, &MemoryStore{}, store)
	assert.Equal(t, 1, logs.Len())
}

// ---------------------------------------------------------------------------
// RedisStore
// ---------------------------------------------------------------------------

// TestRedisStore runs against the server named by REDIS_TEST_ADDR.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStoreWithClient(client, "test:"+uuid.NewString()+":")
	defer store.Close()
	ctx := context.Background()

	marked, err := store.MarkProcessed(ctx, "order:evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.MarkProcessed(ctx, "order:evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, marked)

	processed, err := store.IsProcessed(ctx, "order:evt-1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsProcessed(ctx, "order:evt-2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestNewRedisStoreWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	store := NewRedisStoreWithClient(client, "")
	defer store.Close()
	assert.Equal(t, DefaultKeyPrefix, store.prefix)
}
