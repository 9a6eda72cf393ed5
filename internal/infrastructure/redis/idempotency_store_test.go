package redisstore_test

import (
	"context"
	"testing"
	"time"

	redisstore "remittance-service/internal/infrastructure/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, ttl), mr
}

func TestTryReserve(t *testing.T) {
	store, mr := newStore(t, time.Hour)

	ctx := context.Background()
	ok, err := store.TryReserve(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.TryReserve(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)

	require.True(t, mr.Exists("remittance:idem:k1"))
	require.NoError(t, store.Ping(ctx))
}

func TestTryReserve_ExpiresAfterTTL(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	ok, err := store.TryReserve(ctx, "k2")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.TryReserve(ctx, "k2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTryReserve_ServerDown(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	mr.Close()

	_, err := store.TryReserve(context.Background(), "k3")
	require.Error(t, err)
}

func TestRelease_AllowsReservingAgain(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	ok, err := store.TryReserve(ctx, "k4")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, "k4"))
	require.False(t, mr.Exists("remittance:idem:k4"))

	ok, err = store.TryReserve(ctx, "k4")
	require.NoError(t, err)
	require.True(t, ok)

	// releasing an absent key is not an error
	require.NoError(t, store.Release(ctx, "missing"))
}
