// Package events delivers record events to consumers outside the process.
// Publishers register themselves from init and are created through Create.
package events

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

var (
	// ErrPublisherClosed is returned when publishing to a closed publisher.
	ErrPublisherClosed = errors.New("event publisher is closed")

	// ErrInvalidEvent is returned for events without a table or operation.
	ErrInvalidEvent = errors.New("invalid record event")
)

// PublisherFactory is the Strategy interface for creating publishers.
type PublisherFactory interface {
	// Create creates a new publisher based on the provided configuration.
	Create(config Config) (core.EventPublisher, error)

	// Type returns the type identifier for this factory (e.g., "kafka").
	Type() string

	// Validate validates the configuration specific to this publisher type.
	Validate(config Config) error
}

// Config represents the configuration needed to create a publisher.
type Config struct {
	Type       string
	BufferSize int

	// Redis stream fields
	Stream        string
	MaxLen        int64
	RedisEndpoint string
	RedisPassword string
	RedisDB       int
	PoolSize      int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration

	// Kafka fields
	Kafka registry.InternalKafkaConfig
}

// ConfigFrom converts the events section of the internal configuration.
func ConfigFrom(c registry.InternalEventsConfig) Config {
	cfg := Config{
		Type:          c.Type,
		BufferSize:    c.BufferSize,
		Stream:        c.Stream,
		MaxLen:        c.MaxLen,
		RedisPassword: c.RedisConfig.Password,
		RedisDB:       c.RedisConfig.DB,
		PoolSize:      c.RedisConfig.PoolSize,
		DialTimeout:   c.RedisConfig.DialTimeout,
		ReadTimeout:   c.RedisConfig.ReadTimeout,
		WriteTimeout:  c.RedisConfig.WriteTimeout,
		Kafka:         c.KafkaConfig,
	}
	if len(c.RedisConfig.Endpoints) > 0 {
		cfg.RedisEndpoint = c.RedisConfig.Endpoints[0]
	}
	return cfg
}

var (
	factoryRegistry = make(map[string]PublisherFactory)
	registryMutex   sync.RWMutex
)

// RegisterFactory registers a publisher factory.
// This is called automatically by each implementation's init() function.
func RegisterFactory(factory PublisherFactory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}
	factoryRegistry[factory.Type()] = factory
}

// Create creates a publisher using the factory registered for config.Type.
func Create(config Config) (core.EventPublisher, error) {
	if config.Type == "" {
		return nil, fmt.Errorf("events type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[config.Type]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported events type: %s", config.Type)
	}

	if err := factory.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.Type, err)
	}
	return factory.Create(config)
}

// RegisteredTypes returns the registered publisher types in order.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// validate checks the fields every publisher relies on.
func validate(event *core.RecordEvent) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if event.Table == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidEvent)
	}
	switch event.Operation {
	case core.OperationInsert, core.OperationUpdate, core.OperationDelete:
	default:
		return fmt.Errorf("%w: operation %q", ErrInvalidEvent, event.Operation)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return nil
}

// partitionKey keeps the events of one row in order on one partition.
func partitionKey(event *core.RecordEvent) string {
	return fmt.Sprintf("%s:%v", event.Table, event.Key)
}
