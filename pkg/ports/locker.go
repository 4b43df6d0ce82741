package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker guards against two rewrites of the same document running at once.
// The core itself does not enforce this; hosts that accept concurrent requests
// (HTTP, MCP) acquire the lock around each operation.
type Locker interface {
	// TryLock acquires the lock for key without waiting.
	// Returns domain.ErrOperationActive if another holder owns it.
	// The returned UnlockFunc MUST be called to release the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
