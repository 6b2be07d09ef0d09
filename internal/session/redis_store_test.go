package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/workshop"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewRedisStoreInvalidURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url", 0)
	assert.Error(t, err)
}

func TestPutAndGet(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	session := workshop.NewSession("Board")
	_, err := workshop.AddItem(session, "problem_framing", "Slow onboarding", "", "")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, session))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	require.Len(t, loaded.Data.Problems, 1)
	assert.Equal(t, "Slow onboarding", loaded.Data.Problems[0].Text)
}

func TestGetMissing(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	_, err := store.Get(context.Background(), "ws_missing")
	assert.True(t, workshop.IsNotFound(err))
}

func TestListNewestFirstAndPrunesExpired(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	older := workshop.NewSession("older")
	newer := workshop.NewSession("newer")
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	require.NoError(t, store.Put(ctx, older))
	require.NoError(t, store.Put(ctx, newer))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].BoardName)

	s.Del(store.key(older.ID))
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	members, err := s.ZMembers(indexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID}, members)

	s.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, newer.ID)
	assert.True(t, workshop.IsNotFound(err))
}
