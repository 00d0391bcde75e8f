package redis

import (
	"context"
	"testing"
	"time"

	"github.com/arco-rh/arco-client/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestStore_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "tok123"))

	v, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok123", v)
}

func TestStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStore(client)

	v, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "userData", `{"rol":"empresa"}`))
	require.NoError(t, store.Delete(ctx, "userData"))
	require.NoError(t, store.Delete(ctx, "userData"), "second delete is a no-op")

	_, ok, err := store.Get(ctx, "userData")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStoreWithOptions(client, Options{Prefix: DefaultPrefix, TTL: 100 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "short-lived"))

	// Wait for expiration
	time.Sleep(200 * time.Millisecond)

	_, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStoreWithOptions(client, Options{Prefix: "test-prefix:"})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "tok"))

	exists := client.Exists(ctx, "test-prefix:token").Val()
	assert.Equal(t, int64(1), exists)
}

func TestStore_EmptyKey(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewStore(client)
	ctx := context.Background()

	require.Error(t, store.Set(ctx, "", "v"))
	require.NoError(t, store.Delete(ctx, ""))
	_, ok, err := store.Get(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}
