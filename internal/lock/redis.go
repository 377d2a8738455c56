package lock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Poll interval while waiting for a contended key.
const defaultRetryInterval = 50 * time.Millisecond

// releaseScript deletes a lock key only when it still holds our token, so
// an expired lock reacquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisCoordinator implements Coordinator on a single Redis instance using
// SET NX PX plus a compare-and-delete release script.
type RedisCoordinator struct {
	client        *redis.Client
	retryInterval time.Duration
}

func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{
		client:        client,
		retryInterval: defaultRetryInterval,
	}
}

func (c *RedisCoordinator) AcquireAll(ctx context.Context, keys []string, wait, lease time.Duration) ([]Handle, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeys
	}

	// Acquire in sorted order so two batches sharing keys cannot deadlock
	// each other by acquiring in opposite orders.
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	acquired := make([]Handle, 0, len(sorted))

	for _, key := range sorted {
		for {
			ok, err := c.client.SetNX(ctx, key, token, lease).Result()
			if err != nil {
				c.rollback(ctx, acquired)
				return nil, fmt.Errorf("acquire lock %s failed: %w", key, err)
			}
			if ok {
				acquired = append(acquired, Handle{Key: key, Token: token})
				break
			}
			if time.Now().After(deadline) {
				c.rollback(ctx, acquired)
				return nil, ErrAcquireTimeout
			}
			select {
			case <-ctx.Done():
				c.rollback(ctx, acquired)
				return nil, ctx.Err()
			case <-time.After(c.retryInterval):
			}
		}
	}

	return acquired, nil
}

func (c *RedisCoordinator) ReleaseAll(ctx context.Context, handles []Handle) error {
	var firstErr error
	for _, h := range handles {
		if err := releaseScript.Run(ctx, c.client, []string{h.Key}, h.Token).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release lock %s failed: %w", h.Key, err)
		}
	}
	return firstErr
}

// rollback releases partial acquisitions after a failed batch. Release is
// best-effort here; leftover keys still expire with the lease, and the
// failed batch already reports its own error.
func (c *RedisCoordinator) rollback(ctx context.Context, acquired []Handle) {
	releaseCtx := context.WithoutCancel(ctx)
	_ = c.ReleaseAll(releaseCtx, acquired)
}
