package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// ErrBufferFull is returned when the memory publisher cannot take more events.
var ErrBufferFull = errors.New("event buffer is full")

// MemoryPublisher buffers events in a channel until they are drained.
// This is useful for tests and for in-process consumers.
type MemoryPublisher struct {
	events chan *core.RecordEvent
	mu     sync.RWMutex
	closed bool
}

// NewMemoryPublisher creates a publisher holding up to bufferSize events.
func NewMemoryPublisher(bufferSize int) *MemoryPublisher {
	if bufferSize <= 0 {
		bufferSize = 10000 // Default buffer size
	}
	return &MemoryPublisher{
		events: make(chan *core.RecordEvent, bufferSize),
	}
}

// Publish buffers event without blocking.
func (p *MemoryPublisher) Publish(ctx context.Context, event *core.RecordEvent) error {
	if err := validate(event); err != nil {
		return err
	}

	// The read lock is held across the send so Close cannot close the
	// channel underneath it.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Drain removes and returns up to max buffered events in publish order.
// A max of zero or less drains everything.
func (p *MemoryPublisher) Drain(max int) []*core.RecordEvent {
	out := make([]*core.RecordEvent, 0)
	for max <= 0 || len(out) < max {
		select {
		case event, ok := <-p.events:
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
	return out
}

// Size returns the number of buffered events.
func (p *MemoryPublisher) Size() int {
	return len(p.events)
}

// Close stops accepting events. Buffered events can still be drained.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	return nil
}

type memoryFactory struct{}

func (f *memoryFactory) Type() string { return "memory" }

func (f *memoryFactory) Validate(config Config) error {
	if config.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be non-negative, got: %d", config.BufferSize)
	}
	return nil
}

func (f *memoryFactory) Create(config Config) (core.EventPublisher, error) {
	return NewMemoryPublisher(config.BufferSize), nil
}

// MemoryConfigValidator validates the events section for the memory type.
type MemoryConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *MemoryConfigValidator) Type() string { return "events.memory" }

// Validate validates the memory publisher configuration.
func (v *MemoryConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if config.Events.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be non-negative, got: %d", config.Events.BufferSize)
	}
	return nil
}

func init() {
	RegisterFactory(&memoryFactory{})
	registry.RegisterValidator(&MemoryConfigValidator{})
}
