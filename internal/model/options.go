package model

import (
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
)

const (
	// DefaultLockTTL bounds how long an auto-increment lock survives a
	// crashed holder.
	DefaultLockTTL = 10 * time.Second

	// DefaultHydrationConcurrency is the number of rows hydrated in parallel.
	DefaultHydrationConcurrency = 8
)

// Option configures a Model.
type Option func(*options)

type options struct {
	locker               core.Locker
	lockTTL              time.Duration
	strictSequences      bool
	publisher            core.EventPublisher
	hooks                []Hook
	hydrationConcurrency int
}

func defaultOptions() options {
	return options{
		lockTTL:              DefaultLockTTL,
		hydrationConcurrency: DefaultHydrationConcurrency,
	}
}

// WithLocker serializes the MAX+1 read and the insert that uses it behind
// locker. Without a locker two concurrent inserts can read the same MAX
// and collide on the primary key.
func WithLocker(locker core.Locker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL sets the TTL of auto-increment locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// WithStrictSequences makes inserts fail with core.ErrNoSequence instead of
// falling back to MAX+1 when an auto-increment column has no sequence.
func WithStrictSequences() Option {
	return func(o *options) {
		o.strictSequences = true
	}
}

// WithPublisher emits a core.RecordEvent for every committed insert,
// update and delete.
func WithPublisher(p core.EventPublisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithHooks registers hooks run after every committed change.
func WithHooks(hooks ...Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithHydrationConcurrency bounds parallel row hydration.
// A value below 1 removes the bound.
func WithHydrationConcurrency(n int) Option {
	return func(o *options) {
		o.hydrationConcurrency = n
	}
}
