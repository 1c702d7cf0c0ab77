package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigValidator checks the part of the configuration owned by one
// backend. Backends register one per section they can serve.
type ConfigValidator interface {
	Validate(config *InternalConfig) error

	// Type is "<section>.<backend>", e.g. "lock.redis" or "events.kafka".
	Type() string
}

var validators = struct {
	sync.RWMutex
	byType map[string]ConfigValidator
}{byType: make(map[string]ConfigValidator)}

// RegisterValidator makes v available to validateConfig. Backends call it
// from init. It panics on a nil validator, an empty type or a type that
// is already taken.
func RegisterValidator(v ConfigValidator) {
	if v == nil {
		panic("registry: nil config validator")
	}
	name := v.Type()
	if name == "" {
		panic("registry: config validator without a type")
	}

	validators.Lock()
	defer validators.Unlock()
	if _, taken := validators.byType[name]; taken {
		panic(fmt.Sprintf("registry: config validator %q registered twice", name))
	}
	validators.byType[name] = v
}

// GetValidator returns the validator registered under name.
func GetValidator(name string) (ConfigValidator, bool) {
	validators.RLock()
	defer validators.RUnlock()
	v, ok := validators.byType[name]
	return v, ok
}

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *InternalConfig
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultInternalConfig(),
	}
}

// DefaultInternalConfig returns a configuration with sensible defaults.
func DefaultInternalConfig() *InternalConfig {
	return &InternalConfig{
		Database: InternalDatabaseConfig{
			Driver:               "firebirdsql",
			Host:                 "localhost",
			Port:                 3050,
			Username:             "SYSDBA",
			PoolSize:             10,
			MaxIdleConns:         5,
			ConnMaxLifetime:      5 * time.Minute,
			ConnMaxIdleTime:      10 * time.Minute,
			ConnectionTimeout:    10 * time.Second,
			HydrationConcurrency: 8,
		},
		AutoIncrement: InternalAutoIncrementConfig{
			LockType: LockTypeNone,
			LockTTL:  10 * time.Second,
			RedisConfig: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				DB:           0,
				PoolSize:     10,
				MinIdleConns: 1,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			DynamoDBConfig: InternalDynamoDBConfig{
				Region:    "us-east-1",
				TableName: "orius-locks",
			},
		},
		Events: InternalEventsConfig{
			Type:       EventsTypeNone,
			BufferSize: 10000,
			Stream:     "orius:events",
			MaxLen:     100000,
			RedisConfig: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 1,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			KafkaConfig: InternalKafkaConfig{
				Brokers:         []string{"localhost:9092"},
				Topic:           "orius-record-events",
				GroupID:         "orius-record-events",
				BatchSize:       100,
				BatchTimeout:    10 * time.Millisecond,
				WriteTimeout:    10 * time.Second,
				ReadTimeout:     10 * time.Second,
				RequiredAcks:    -1,      // All replicas
				MaxMessageBytes: 1000000, // 1MB
				MinBytes:        1,
				MaxBytes:        10 * 1024 * 1024, // 10MB
				MaxWait:         100 * time.Millisecond,
			},
		},
	}
}

// Backend names that need no validator.
const (
	LockTypeNone   = "none"
	EventsTypeNone = "none"
)

// LoadFromFile reads a .yaml, .yml or .json file over the defaults.
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	return cm.loadFile(filePath, true)
}

// DecodeFile is LoadFromFile without validation, for files that expect
// environment variables to complete them. LoadFromEnv validates the result.
func (cm *ConfigManager) DecodeFile(filePath string) error {
	return cm.loadFile(filePath, false)
}

func (cm *ConfigManager) loadFile(filePath string, validate bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		return cm.load("YAML", data, yaml.Unmarshal, validate)
	case ".json":
		return cm.load("JSON", data, json.Unmarshal, validate)
	default:
		return fmt.Errorf("unsupported config file format %q, want .yaml, .yml or .json", ext)
	}
}

// LoadFromYAML replaces the configuration with data decoded over the
// defaults. Nothing changes when decoding or validation fails.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	return cm.load("YAML", data, yaml.Unmarshal, true)
}

// LoadFromJSON is LoadFromYAML for JSON documents.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	return cm.load("JSON", data, json.Unmarshal, true)
}

func (cm *ConfigManager) load(format string, data []byte, unmarshal func([]byte, interface{}) error, validate bool) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse %s config: %w", format, err)
		}
	}
	if validate {
		if err := cm.validateConfig(config); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	cm.config = config
	return nil
}

// LoadFromEnv applies environment variables on top of the current
// configuration and validates the result.
// The connection variables FDB_HOST, FDB_PORT, FDB_DATABASE, FDB_USER,
// FDB_PASSWORD and FDB_POOL_SIZE are read first; variables following the
// pattern ORIUS_<SECTION>_<KEY> take precedence.
// Examples:
//   - ORIUS_DATABASE_DRIVER=firebird
//   - ORIUS_DATABASE_HOST=localhost
//   - ORIUS_LOCK_TYPE=redis
//   - ORIUS_LOCK_REDIS_ENDPOINTS=localhost:6379,localhost:6380
//   - ORIUS_EVENTS_TYPE=kafka
//   - ORIUS_EVENTS_KAFKA_BROKERS=localhost:9092
func (cm *ConfigManager) LoadFromEnv() error {
	copied := *cm.config
	config := &copied

	// Connection variables
	setString(&config.Database.Host, "FDB_HOST")
	setInt(&config.Database.Port, "FDB_PORT")
	setString(&config.Database.Database, "FDB_DATABASE")
	setString(&config.Database.Username, "FDB_USER")
	setString(&config.Database.Password, "FDB_PASSWORD")
	setInt(&config.Database.PoolSize, "FDB_POOL_SIZE")

	// Database configuration
	setString(&config.Database.Driver, "ORIUS_DATABASE_DRIVER")
	setString(&config.Database.Host, "ORIUS_DATABASE_HOST")
	setInt(&config.Database.Port, "ORIUS_DATABASE_PORT")
	setString(&config.Database.Database, "ORIUS_DATABASE_DATABASE")
	setString(&config.Database.Username, "ORIUS_DATABASE_USERNAME")
	setString(&config.Database.Password, "ORIUS_DATABASE_PASSWORD")
	setString(&config.Database.SSLMode, "ORIUS_DATABASE_SSL_MODE")
	setInt(&config.Database.PoolSize, "ORIUS_DATABASE_POOL_SIZE")
	setInt(&config.Database.MaxIdleConns, "ORIUS_DATABASE_MAX_IDLE_CONNS")
	setDuration(&config.Database.ConnectionTimeout, "ORIUS_DATABASE_CONNECTION_TIMEOUT")
	if val := os.Getenv("ORIUS_DATABASE_QUERY_RATE"); val != "" {
		var rate float64
		if _, err := fmt.Sscanf(val, "%f", &rate); err == nil {
			config.Database.QueryRate = rate
		}
	}
	setInt(&config.Database.QueryBurst, "ORIUS_DATABASE_QUERY_BURST")
	setInt(&config.Database.HydrationConcurrency, "ORIUS_DATABASE_HYDRATION_CONCURRENCY")

	// Auto-increment configuration
	setString(&config.AutoIncrement.LockType, "ORIUS_LOCK_TYPE")
	setDuration(&config.AutoIncrement.LockTTL, "ORIUS_LOCK_TTL")
	if val := os.Getenv("ORIUS_STRICT_SEQUENCES"); val != "" {
		config.AutoIncrement.StrictSequences = (val == "true" || val == "1")
	}
	if val := os.Getenv("ORIUS_LOCK_REDIS_ENDPOINTS"); val != "" {
		config.AutoIncrement.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	setString(&config.AutoIncrement.RedisConfig.Password, "ORIUS_LOCK_REDIS_PASSWORD")
	setInt(&config.AutoIncrement.RedisConfig.DB, "ORIUS_LOCK_REDIS_DB")
	setString(&config.AutoIncrement.DynamoDBConfig.Region, "ORIUS_LOCK_DYNAMODB_REGION")
	setString(&config.AutoIncrement.DynamoDBConfig.TableName, "ORIUS_LOCK_DYNAMODB_TABLE")
	setString(&config.AutoIncrement.DynamoDBConfig.Endpoint, "ORIUS_LOCK_DYNAMODB_ENDPOINT")

	// Events configuration
	setString(&config.Events.Type, "ORIUS_EVENTS_TYPE")
	setInt(&config.Events.BufferSize, "ORIUS_EVENTS_BUFFER_SIZE")
	setString(&config.Events.Stream, "ORIUS_EVENTS_STREAM")
	if val := os.Getenv("ORIUS_EVENTS_REDIS_ENDPOINTS"); val != "" {
		config.Events.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	if val := os.Getenv("ORIUS_EVENTS_KAFKA_BROKERS"); val != "" {
		config.Events.KafkaConfig.Brokers = strings.Split(val, ",")
	}
	setString(&config.Events.KafkaConfig.Topic, "ORIUS_EVENTS_KAFKA_TOPIC")

	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = config
	return nil
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// GetConfig returns the current internal configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

// SetConfig validates config and makes it current.
func (cm *ConfigManager) SetConfig(config *InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// validateConfig validates the configuration and returns an error if invalid.
// Lock and event backends are validated by their registered strategies.
func (cm *ConfigManager) validateConfig(config *InternalConfig) error {
	// Validate Database configuration
	if config.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}
	switch strings.ToLower(config.Database.Driver) {
	case "firebird", "firebirdsql", "fdb", "mysql", "mariadb", "postgres", "postgresql", "pq", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be one of firebird, mysql, postgres or sqlite, got: %s", config.Database.Driver)
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if config.Database.Port < 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 0 and 65535 (0 uses the driver default)")
	}
	if config.Database.PoolSize <= 0 {
		return fmt.Errorf("database.pool_size must be greater than 0")
	}
	if config.Database.QueryRate < 0 {
		return fmt.Errorf("database.query_rate must be non-negative")
	}

	// Validate auto-increment configuration using Strategy pattern
	if config.AutoIncrement.LockTTL <= 0 {
		return fmt.Errorf("auto_increment.lock_ttl must be greater than 0")
	}
	if err := validateBackend("lock", config.AutoIncrement.LockType, LockTypeNone, config); err != nil {
		return err
	}

	// Validate events configuration using Strategy pattern
	if err := validateBackend("events", config.Events.Type, EventsTypeNone, config); err != nil {
		return err
	}

	// Validate model definitions
	seen := make(map[string]bool, len(config.Models))
	for _, def := range config.Models {
		s, err := def.Build()
		if err != nil {
			return fmt.Errorf("models: %w", err)
		}
		if seen[s.Table()] {
			return fmt.Errorf("models: table %s is defined twice", s.Table())
		}
		seen[s.Table()] = true
	}

	return nil
}

// validateBackend looks up the validator registered as "<section>.<type>".
func validateBackend(section, backendType, none string, config *InternalConfig) error {
	if backendType == "" || backendType == none {
		return nil
	}

	// Get validator from registry based on config type (Strategy pattern)
	validator, exists := GetValidator(section + "." + backendType)
	if !exists {
		return fmt.Errorf("unsupported %s type: %s", section, backendType)
	}

	// Use strategy - validator.Validate handles the specific validation
	if err := validator.Validate(config); err != nil {
		return fmt.Errorf("%s validation failed: %w", section, err)
	}
	return nil
}
