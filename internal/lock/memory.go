package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time // zero means no expiry
}

// MemoryCoordinator implements Coordinator with an in-process map. It
// serves single-node deployments and tests; the lock contract (atomic
// batch acquire, bounded wait, token-fenced release) matches the Redis
// backend.
type MemoryCoordinator struct {
	mu   sync.Mutex
	held map[string]memoryEntry

	retryInterval time.Duration
}

func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{
		held:          make(map[string]memoryEntry),
		retryInterval: 5 * time.Millisecond,
	}
}

func (c *MemoryCoordinator) AcquireAll(ctx context.Context, keys []string, wait, lease time.Duration) ([]Handle, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeys
	}

	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		if handles, ok := c.tryAcquire(sorted, token, lease); ok {
			return handles, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrAcquireTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

// tryAcquire takes the whole batch under one mutex hold, which makes the
// batch atomic: partial acquisition is never observable.
func (c *MemoryCoordinator) tryAcquire(keys []string, token string, lease time.Duration) ([]Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, key := range keys {
		entry, ok := c.held[key]
		if ok && (entry.expiresAt.IsZero() || entry.expiresAt.After(now)) {
			return nil, false
		}
	}

	var expiresAt time.Time
	if lease > 0 {
		expiresAt = now.Add(lease)
	}

	handles := make([]Handle, 0, len(keys))
	for _, key := range keys {
		c.held[key] = memoryEntry{token: token, expiresAt: expiresAt}
		handles = append(handles, Handle{Key: key, Token: token})
	}
	return handles, true
}

func (c *MemoryCoordinator) ReleaseAll(_ context.Context, handles []Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range handles {
		if entry, ok := c.held[h.Key]; ok && entry.token == h.Token {
			delete(c.held, h.Key)
		}
	}
	return nil
}
