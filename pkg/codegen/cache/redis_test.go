package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStoreTest creates a miniredis instance and a store connected to it
func setupRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := OpenRedis("redis://"+mr.Addr(), "avrobuild:test:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, _ := setupRedisStoreTest(t)
	exerciseStore(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := setupRedisStoreTest(t)

	require.NoError(t, store.Put(context.Background(), "fingerprint:v1:c:main", []byte("{}")))
	assert.True(t, mr.Exists("avrobuild:test:fingerprint:v1:c:main"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := setupRedisStoreTest(t)
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis("not a url", "p:")
	assert.Error(t, err)
}
