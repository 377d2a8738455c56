package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCoordinator(t *testing.T) (*RedisCoordinator, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCoordinator(client)
	c.retryInterval = 2 * time.Millisecond
	return c, srv
}

func TestRedisAcquireRelease(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedisCoordinator(t)

	handles, err := c.AcquireAll(ctx, []string{"a", "b"}, 100*time.Millisecond, 0)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.True(t, srv.Exists("a"))
	assert.True(t, srv.Exists("b"))

	// Held keys are contended until released.
	_, err = c.AcquireAll(ctx, []string{"b"}, 20*time.Millisecond, 0)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	require.NoError(t, c.ReleaseAll(ctx, handles))
	assert.False(t, srv.Exists("a"))
	assert.False(t, srv.Exists("b"))
}

func TestRedisAcquireAllOrNothing(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedisCoordinator(t)

	// "b" is held elsewhere; the batch acquires "a" first (sorted order)
	// and must roll it back when "b" never frees up.
	require.NoError(t, srv.Set("b", "someone-else"))

	_, err := c.AcquireAll(ctx, []string{"b", "a"}, 20*time.Millisecond, 0)
	require.ErrorIs(t, err, ErrAcquireTimeout)
	assert.False(t, srv.Exists("a"), "partial acquisition must be rolled back")
}

func TestRedisReleaseIsTokenFenced(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedisCoordinator(t)

	handles, err := c.AcquireAll(ctx, []string{"a"}, 100*time.Millisecond, 0)
	require.NoError(t, err)

	// Simulate lease expiry plus reacquisition by another coordinator.
	require.NoError(t, srv.Set("a", "someone-else"))

	require.NoError(t, c.ReleaseAll(ctx, handles))
	got, err := srv.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got, "release must not delete a lock it no longer owns")
}

func TestRedisLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedisCoordinator(t)

	_, err := c.AcquireAll(ctx, []string{"a"}, 50*time.Millisecond, 30*time.Millisecond)
	require.NoError(t, err)

	srv.FastForward(50 * time.Millisecond)
	assert.False(t, srv.Exists("a"), "lease must auto-expire the key")

	handles, err := c.AcquireAll(ctx, []string{"a"}, 100*time.Millisecond, 0)
	require.NoError(t, err)
	require.NoError(t, c.ReleaseAll(ctx, handles))
}

func TestRedisWaitBound(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedisCoordinator(t)

	require.NoError(t, srv.Set("a", "someone-else"))

	start := time.Now()
	_, err := c.AcquireAll(ctx, []string{"a"}, 50*time.Millisecond, 0)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrAcquireTimeout)
	assert.Less(t, elapsed, 2*time.Second, "wait must be bounded by the timeout")
}

func TestRedisEmptyKeys(t *testing.T) {
	c, _ := newTestRedisCoordinator(t)

	_, err := c.AcquireAll(context.Background(), nil, time.Second, 0)
	assert.ErrorIs(t, err, ErrEmptyKeys)
}
