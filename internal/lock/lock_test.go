package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "slot:lock:42:2026-03-14", Key(42, date))
	assert.Equal(t, Key(42, date), Key(42, date))
	assert.NotEqual(t, Key(42, date), Key(43, date))
	assert.NotEqual(t, Key(42, date), Key(42, date.AddDate(0, 0, 1)))
}

func TestKeysBatch(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	keys := Keys([]int64{1, 2, 3}, date)

	require.Len(t, keys, 3)
	assert.Equal(t, Key(1, date), keys[0])
	assert.Equal(t, Key(3, date), keys[2])
}

func TestMemoryAcquireRelease(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	handles, err := c.AcquireAll(ctx, []string{"a", "b"}, 100*time.Millisecond, 0)
	require.NoError(t, err)
	require.Len(t, handles, 2)

	// Same keys are contended until released.
	_, err = c.AcquireAll(ctx, []string{"b"}, 20*time.Millisecond, 0)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	require.NoError(t, c.ReleaseAll(ctx, handles))

	handles2, err := c.AcquireAll(ctx, []string{"a", "b"}, 100*time.Millisecond, 0)
	require.NoError(t, err)
	require.NoError(t, c.ReleaseAll(ctx, handles2))
}

func TestMemoryAcquireAllOrNothing(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	held, err := c.AcquireAll(ctx, []string{"b"}, 100*time.Millisecond, 0)
	require.NoError(t, err)

	// The batch containing the held key must fail without keeping "a".
	_, err = c.AcquireAll(ctx, []string{"a", "b"}, 20*time.Millisecond, 0)
	require.ErrorIs(t, err, ErrAcquireTimeout)

	got, err := c.AcquireAll(ctx, []string{"a"}, 20*time.Millisecond, 0)
	require.NoError(t, err, "failed batch must not leave partial locks held")
	require.NoError(t, c.ReleaseAll(ctx, got))
	require.NoError(t, c.ReleaseAll(ctx, held))
}

func TestMemoryEmptyKeys(t *testing.T) {
	_, err := NewMemoryCoordinator().AcquireAll(context.Background(), nil, time.Second, 0)
	assert.ErrorIs(t, err, ErrEmptyKeys)
}

func TestMemoryReleaseIsTokenFenced(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	handles, err := c.AcquireAll(ctx, []string{"a"}, 100*time.Millisecond, 0)
	require.NoError(t, err)

	// A stale handle with a different token must not release the lock.
	require.NoError(t, c.ReleaseAll(ctx, []Handle{{Key: "a", Token: "stale"}}))
	_, err = c.AcquireAll(ctx, []string{"a"}, 20*time.Millisecond, 0)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	require.NoError(t, c.ReleaseAll(ctx, handles))
}

func TestMemoryLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	_, err := c.AcquireAll(ctx, []string{"a"}, 50*time.Millisecond, 30*time.Millisecond)
	require.NoError(t, err)

	// After the lease elapses the key is free again, even without release.
	handles, err := c.AcquireAll(ctx, []string{"a"}, 200*time.Millisecond, 0)
	require.NoError(t, err)
	require.NoError(t, c.ReleaseAll(ctx, handles))
}

func TestMemoryWaitBound(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	held, err := c.AcquireAll(ctx, []string{"a"}, 50*time.Millisecond, 0)
	require.NoError(t, err)
	defer c.ReleaseAll(ctx, held)

	start := time.Now()
	_, err = c.AcquireAll(ctx, []string{"a"}, 100*time.Millisecond, 0)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrAcquireTimeout)
	assert.Less(t, elapsed, 2*time.Second, "wait must be bounded by the timeout")
}

func TestMemoryContextCancel(t *testing.T) {
	c := NewMemoryCoordinator()
	held, err := c.AcquireAll(context.Background(), []string{"a"}, 50*time.Millisecond, 0)
	require.NoError(t, err)
	defer c.ReleaseAll(context.Background(), held)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.AcquireAll(ctx, []string{"a"}, time.Second, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryMutualExclusion(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCoordinator()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		inside    int
		maxInside int
		winners   int
	)

	// Everyone contends on the same key; the critical section counter
	// must never see two holders at once.
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles, err := c.AcquireAll(ctx, []string{"contended"}, 2*time.Second, 0)
			if err != nil {
				return
			}

			mu.Lock()
			inside++
			winners++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()

			_ = c.ReleaseAll(ctx, handles)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, attempts, winners, "every attempt should eventually acquire within the wait")
	assert.Equal(t, 1, maxInside, "at most one holder at a time")
}
