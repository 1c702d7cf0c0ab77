package lock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker implements core.Locker with SET NX PX on a single Redis node.
type RedisLocker struct {
	client *redis.Client
	poll   time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewRedisLocker connects to the first endpoint and verifies it answers PING.
func NewRedisLocker(config Config) (*RedisLocker, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	// Single-node Redis only.
	client := redis.NewClient(&redis.Options{
		Addr:         config.Endpoints[0],
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
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

	log.Printf("[LOCK:REDIS] Connected to %s", config.Endpoints[0])
	return NewRedisLockerFromClient(client, config.pollInterval()), nil
}

// NewRedisLockerFromClient wraps an existing client.
func NewRedisLockerFromClient(client *redis.Client, poll time.Duration) *RedisLocker {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &RedisLocker{client: client, poll: poll}
}

// Acquire polls SET NX until the key is ours or ctx ends.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (core.Unlocker, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrLockerClosed
	}

	token := uuid.NewString()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLock{client: r.client, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the Redis client.
func (r *RedisLocker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		log.Printf("[LOCK:REDIS] WARNING: Lock %s expired before release", l.key)
	}
	return nil
}

// RedisLockerFactory implements the LockerFactory interface for Redis.
type RedisLockerFactory struct{}

// Type returns the type identifier for this factory.
func (f *RedisLockerFactory) Type() string {
	return "redis"
}

// Validate validates the Redis-specific configuration.
func (f *RedisLockerFactory) Validate(config Config) error {
	if config.Type != "redis" {
		return fmt.Errorf("invalid type for Redis factory: %s", config.Type)
	}
	return validateRedis(config.Endpoints, config.DB, config.PoolSize, config.MinIdleConns, config.DialTimeout, config.ReadTimeout, config.WriteTimeout)
}

// Create creates a new Redis locker.
func (f *RedisLockerFactory) Create(config Config) (core.Locker, error) {
	locker, err := NewRedisLocker(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis locker: %w", err)
	}
	return locker, nil
}

// RedisConfigValidator validates auto_increment.redis_config when the
// lock type is redis.
type RedisConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *RedisConfigValidator) Type() string {
	return "lock.redis"
}

// Validate validates the Redis-specific configuration in the internal config.
func (v *RedisConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	rc := config.AutoIncrement.RedisConfig
	return validateRedis(rc.Endpoints, rc.DB, rc.PoolSize, rc.MinIdleConns, rc.DialTimeout, rc.ReadTimeout, rc.WriteTimeout)
}

func validateRedis(endpoints []string, db, poolSize, minIdle int, dial, read, write time.Duration) error {
	if len(endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}

	// Redis supports 0-15 databases
	if db < 0 || db > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", db)
	}
	if poolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", poolSize)
	}
	if minIdle < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", minIdle)
	}
	if dial <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", dial)
	}
	if read <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0, got: %v", read)
	}
	if write <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", write)
	}
	return nil
}

// init auto-registers the Redis factory and validator on package initialization.
func init() {
	RegisterFactory(&RedisLockerFactory{})
	registry.RegisterValidator(&RedisConfigValidator{})
}
