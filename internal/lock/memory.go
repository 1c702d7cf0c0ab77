package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// MemoryLocker serializes callers within one process.
// The ttl passed to Acquire is ignored: a holder cannot outlive the process.
type MemoryLocker struct {
	mu     sync.Mutex
	slots  map[string]chan struct{}
	closed bool
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (m *MemoryLocker) slot(key string) (chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrLockerClosed
	}
	s, ok := m.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.slots[key] = s
	}
	return s, nil
}

// Acquire blocks until key is free or ctx ends.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (core.Unlocker, error) {
	s, err := m.slot(key)
	if err != nil {
		return nil, err
	}

	select {
	case s <- struct{}{}:
		return &memoryLock{slot: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close rejects further acquisitions. Held locks can still be released.
func (m *MemoryLocker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memoryLock struct {
	once sync.Once
	slot chan struct{}
}

func (l *memoryLock) Release(ctx context.Context) error {
	l.once.Do(func() { <-l.slot })
	return nil
}

type memoryFactory struct{}

func (f *memoryFactory) Type() string { return "memory" }

func (f *memoryFactory) Validate(config Config) error { return nil }

func (f *memoryFactory) Create(config Config) (core.Locker, error) {
	return NewMemoryLocker(), nil
}

// MemoryConfigValidator accepts the memory lock type, which has no settings.
type MemoryConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *MemoryConfigValidator) Type() string { return "lock.memory" }

// Validate validates the memory locker configuration.
func (v *MemoryConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return nil
}

func init() {
	RegisterFactory(&memoryFactory{})
	registry.RegisterValidator(&MemoryConfigValidator{})
}
