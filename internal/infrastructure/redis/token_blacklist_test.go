package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisinfra "github.com/turtacn/authgate/internal/infrastructure/redis"
	"github.com/turtacn/authgate/pkg/errors"
)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestBlacklistAddAndContains(t *testing.T) {
	_, client := newTestBlacklist(t)
	bl := redisinfra.NewTokenBlacklist(client)
	ctx := context.Background()

	blocked, err := bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, bl.Add(ctx, "some-token", time.Now().Add(time.Hour)))

	blocked, err = bl.Contains(ctx, "some-token")
	require.NoError(t, err)
	assert.True(t, blocked)

	// A different token is unaffected.
	blocked, err = bl.Contains(ctx, "other-token")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlacklistEntryExpiresWithToken(t *testing.T) {
	mr, client := newTestBlacklist(t)
	bl := redisinfra.NewTokenBlacklist(client)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "short-lived", time.Now().Add(time.Minute)))

	mr.FastForward(2 * time.Minute)

	blocked, err := bl.Contains(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlacklistAddAlreadyExpiredIsNoop(t *testing.T) {
	mr, client := newTestBlacklist(t)
	bl := redisinfra.NewTokenBlacklist(client)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "dead-token", time.Now().Add(-time.Minute)))
	assert.Empty(t, mr.Keys())
}

func TestBlacklistStoreUnavailable(t *testing.T) {
	mr, client := newTestBlacklist(t)
	bl := redisinfra.NewTokenBlacklist(client)
	ctx := context.Background()

	mr.Close()

	err := bl.Add(ctx, "token", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = bl.Contains(ctx, "token")
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
}
