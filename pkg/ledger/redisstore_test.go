package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore("redis://"+mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestNewRedisStoreInvalidURL(t *testing.T) {
	store, err := NewRedisStore("not-a-url", 0)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	eventID, err := store.Save(ctx, "u1", "s1", "f1")
	require.NoError(t, err)
	assert.NotEmpty(t, eventID)

	_, err = store.Save(ctx, "u1", "s2", "f2")
	require.NoError(t, err)

	events, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	byRecord := map[string]string{}
	for _, ev := range events {
		byRecord[ev.RecordID] = ev.FormID
	}
	assert.Equal(t, "f1", byRecord["s1"])
	assert.Equal(t, "f2", byRecord["s2"])
}

func TestRedisStoreDuplicateSave(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "u1", "s1", "f1")
	require.NoError(t, err)

	second, err := store.Save(ctx, "u1", "s1", "f1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRedisStoreUserIsolation(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "u1", "s1", "f1")
	require.NoError(t, err)

	events, err := store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedisStore("redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Save(context.Background(), "u1", "s1", "f1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	events, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
