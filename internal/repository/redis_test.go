package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDedupStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedisDedupStore(client)
	ctx := context.Background()

	t.Run("FirstSeenOnce", func(t *testing.T) {
		first, err := store.FirstSeen(ctx, "tx-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, first)

		first, err = store.FirstSeen(ctx, "tx-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, first)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		first, err := store.FirstSeen(ctx, "tx-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)

		s.FastForward(2 * time.Minute)

		first, err = store.FirstSeen(ctx, "tx-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)
	})

	t.Run("Forget", func(t *testing.T) {
		_, err := store.FirstSeen(ctx, "tx-3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "tx-3"))

		first, err := store.FirstSeen(ctx, "tx-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, first)
	})

	t.Run("NilClient", func(t *testing.T) {
		broken := NewRedisDedupStore(nil)
		_, err := broken.FirstSeen(ctx, "tx-4", time.Hour)
		assert.Error(t, err)
		assert.Error(t, broken.Forget(ctx, "tx-4"))
	})
}

func TestPing(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	assert.NoError(t, Ping(context.Background(), client))

	s.Close()
	assert.Error(t, Ping(context.Background(), client))
}
