// Package lock provides the lockers that serialize MAX+1 inserts.
// Backends register themselves from init, so importing the package makes
// every backend available through Create.
package lock

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// LockerFactory is the Strategy interface for creating lockers.
// Each backend (memory, Redis, DynamoDB) implements this interface to
// provide its own factory method.
type LockerFactory interface {
	// Create creates a new locker based on the provided configuration.
	Create(config Config) (core.Locker, error)

	// Type returns the type identifier for this factory (e.g., "redis", "dynamodb").
	Type() string

	// Validate validates the configuration specific to this locker type.
	Validate(config Config) error
}

// Config represents the configuration needed to create a locker.
type Config struct {
	Type string

	// Redis-specific fields
	Endpoints    []string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DynamoDB-specific fields
	Region          string
	TableName       string
	Endpoint        string // Optional, for LocalStack
	AccessKeyID     string // Optional, can use IAM role instead
	SecretAccessKey string // Optional, can use IAM role instead

	// PollInterval is how often a distributed locker retries a held lock.
	PollInterval time.Duration
}

// DefaultPollInterval is used when Config.PollInterval is zero.
const DefaultPollInterval = 25 * time.Millisecond

// ConfigFrom converts the auto-increment section of the internal configuration.
func ConfigFrom(c registry.InternalAutoIncrementConfig) Config {
	return Config{
		Type:            c.LockType,
		Endpoints:       c.RedisConfig.Endpoints,
		Password:        c.RedisConfig.Password,
		DB:              c.RedisConfig.DB,
		PoolSize:        c.RedisConfig.PoolSize,
		MinIdleConns:    c.RedisConfig.MinIdleConns,
		DialTimeout:     c.RedisConfig.DialTimeout,
		ReadTimeout:     c.RedisConfig.ReadTimeout,
		WriteTimeout:    c.RedisConfig.WriteTimeout,
		Region:          c.DynamoDBConfig.Region,
		TableName:       c.DynamoDBConfig.TableName,
		Endpoint:        c.DynamoDBConfig.Endpoint,
		AccessKeyID:     c.DynamoDBConfig.AccessKeyID,
		SecretAccessKey: c.DynamoDBConfig.SecretAccessKey,
	}
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

var (
	// factoryRegistry stores all registered locker factories.
	factoryRegistry = make(map[string]LockerFactory)

	// registryMutex protects the registry from concurrent access.
	registryMutex sync.RWMutex
)

// RegisterFactory registers a locker factory.
// This is called automatically by each implementation's init() function.
func RegisterFactory(factory LockerFactory) {
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

// Create creates a locker using the factory registered for config.Type.
func Create(config Config) (core.Locker, error) {
	if config.Type == "" {
		return nil, fmt.Errorf("lock type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[config.Type]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported lock type: %s", config.Type)
	}

	if err := factory.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.Type, err)
	}

	return factory.Create(config)
}

// RegisteredTypes returns the registered locker types in order.
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

// IsTypeRegistered checks if a locker type is registered.
func IsTypeRegistered(lockType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	_, exists := factoryRegistry[lockType]
	return exists
}

// ErrLockerClosed is returned by Acquire after Close.
var ErrLockerClosed = errors.New("locker is closed")
