package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// RedisStreamPublisher appends record events to a Redis stream trimmed to
// roughly maxLen entries.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	mu     sync.RWMutex
	closed bool
}

// NewRedisStreamPublisher connects to config.RedisEndpoint.
func NewRedisStreamPublisher(config Config) (*RedisStreamPublisher, error) {
	if config.RedisEndpoint == "" {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisEndpoint,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[EVENTS:REDIS] Publishing to stream %s on %s", config.Stream, config.RedisEndpoint)
	return NewRedisStreamPublisherFromClient(client, config.Stream, config.MaxLen), nil
}

// NewRedisStreamPublisherFromClient wraps an existing client.
func NewRedisStreamPublisherFromClient(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends event to the stream with XADD.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *core.RecordEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	args, err := streamArgs(p.stream, p.maxLen, event)
	if err != nil {
		return err
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to append event to stream %s: %w", p.stream, err)
	}
	log.Printf("[EVENTS:REDIS] Appended %s event for %s as %s", event.Operation, event.Table, id)
	return nil
}

// Len returns the number of entries in the stream.
func (p *RedisStreamPublisher) Len(ctx context.Context) (int64, error) {
	return p.client.XLen(ctx, p.stream).Result()
}

// Close closes the Redis client.
func (p *RedisStreamPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.client.Close()
}

func streamArgs(stream string, maxLen int64, event *core.RecordEvent) (*redis.XAddArgs, error) {
	if err := validate(event); err != nil {
		return nil, err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record event: %w", err)
	}

	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Approx: maxLen > 0,
		Values: map[string]interface{}{
			"id":        event.ID,
			"key":       partitionKey(event),
			"operation": string(event.Operation),
			"table":     event.Table,
			"event":     data,
		},
	}, nil
}

type redisFactory struct{}

func (f *redisFactory) Type() string { return "redis" }

func (f *redisFactory) Validate(config Config) error {
	if config.RedisEndpoint == "" {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if config.Stream == "" {
		return fmt.Errorf("stream is required")
	}
	return nil
}

func (f *redisFactory) Create(config Config) (core.EventPublisher, error) {
	return NewRedisStreamPublisher(config)
}

// RedisConfigValidator validates the events section when the type is redis.
type RedisConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *RedisConfigValidator) Type() string { return "events.redis" }

// Validate validates the Redis stream configuration in the internal config.
func (v *RedisConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	ec := config.Events
	if len(ec.RedisConfig.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if ec.Stream == "" {
		return fmt.Errorf("stream is required")
	}
	if ec.MaxLen < 0 {
		return fmt.Errorf("max_len must be non-negative, got: %d", ec.MaxLen)
	}
	if ec.RedisConfig.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", ec.RedisConfig.DialTimeout)
	}
	return nil
}

func init() {
	RegisterFactory(&redisFactory{})
	registry.RegisterValidator(&RedisConfigValidator{})
}
