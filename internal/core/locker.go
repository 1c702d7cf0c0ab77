package core

import (
	"context"
	"time"
)

// Locker provides key-scoped mutual exclusion, possibly across processes.
// It is used to serialize the MAX+1 read and the insert that consumes it.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx ends.
	// ttl bounds how long a crashed holder can keep the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)

	// Close releases resources held by the locker.
	Close() error
}

// Unlocker releases a lock obtained from a Locker.
type Unlocker interface {
	Release(ctx context.Context) error
}
