//go:build integration

package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisSessionStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	return NewRedisSessionStore(client)
}

func TestRedisSessionStore_RevokeToken(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	jti := uuid.NewString()

	revoked, err := store.IsTokenRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.RevokeToken(ctx, jti, time.Minute))

	revoked, err = store.IsTokenRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisSessionStore_RevokeUser(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.RevokeUser(ctx, userID, time.Minute))

	revoked, err := store.IsUserRevoked(ctx, userID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsUserRevoked(ctx, userID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)

	time.Sleep(time.Millisecond)
	revoked, err = store.IsUserRevoked(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.False(t, revoked, "token issued a millisecond after revocation")
}
