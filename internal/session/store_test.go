package session_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/session"
)

func newStore(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &session.Store{R: client, TTL: time.Minute}, mr
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, common.SessionInfo{UserID: "u1", Username: "kate", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	info, ok, err := store.Get(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "kate", info.Username)
	require.True(t, info.IsAdmin)
	require.Equal(t, token, info.Token)
}

func TestGetUnknownToken(t *testing.T) {
	store, _ := newStore(t)
	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, common.SessionInfo{Username: "kate"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, token))

	_, ok, err := store.Get(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpiry(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, common.SessionInfo{Username: "kate"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}
