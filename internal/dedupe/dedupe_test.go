package dedupe

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/webhook-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, config Config) (*miniredis.Miniredis, *Cache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// unique connection name per test, the adapter registry is global
	connName := fmt.Sprintf("dedupe-test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, NewCache(adapter, config)
}

func TestCache_SeenAfterMark(t *testing.T) {
	_, cache := setupTestCache(t, DefaultConfig())
	ctx := context.Background()

	assert.False(t, cache.Seen(ctx, "m1"))

	cache.MarkSeen(ctx, "m1")
	assert.True(t, cache.Seen(ctx, "m1"))

	// ids do not bleed into each other
	assert.False(t, cache.Seen(ctx, "m2"))
}

func TestCache_KeyPrefix(t *testing.T) {
	mr, cache := setupTestCache(t, Config{KeyPrefix: "seen:", TTL: time.Hour})
	ctx := context.Background()

	cache.MarkSeen(ctx, "m1")
	assert.True(t, mr.Exists("seen:m1"))
}

func TestCache_EntriesExpire(t *testing.T) {
	mr, cache := setupTestCache(t, Config{TTL: time.Minute})
	ctx := context.Background()

	cache.MarkSeen(ctx, "m1")
	require.True(t, cache.Seen(ctx, "m1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, cache.Seen(ctx, "m1"))
}

func TestCache_RedisDownDegradesToNotSeen(t *testing.T) {
	mr, cache := setupTestCache(t, DefaultConfig())
	ctx := context.Background()

	cache.MarkSeen(ctx, "m1")
	mr.Close()

	// probe failures must never claim a duplicate
	assert.False(t, cache.Seen(ctx, "m1"))
}

func TestNewCache_ZeroConfigFallsBackToDefaults(t *testing.T) {
	mr, cache := setupTestCache(t, Config{})
	ctx := context.Background()

	cache.MarkSeen(ctx, "m1")
	assert.True(t, mr.Exists("seen:m1"))
	assert.True(t, cache.Seen(ctx, "m1"))
}
