package registry

import (
	"time"

	"github.com/rzpsarthak13/orius/internal/schema"
)

// InternalConfig represents the internal configuration structure.
// This is a copy of the public Config type to avoid import cycles.
type InternalConfig struct {
	Database      InternalDatabaseConfig      `yaml:"database" json:"database"`
	AutoIncrement InternalAutoIncrementConfig `yaml:"auto_increment" json:"auto_increment"`
	Events        InternalEventsConfig        `yaml:"events" json:"events"`
	Models        []schema.Definition         `yaml:"models,omitempty" json:"models,omitempty"`
}

// InternalDatabaseConfig contains configuration for the connection facade.
type InternalDatabaseConfig struct {
	Driver            string            `yaml:"driver" json:"driver"`
	Host              string            `yaml:"host" json:"host"`
	Port              int               `yaml:"port" json:"port"`
	Database          string            `yaml:"database" json:"database"`
	Username          string            `yaml:"username" json:"username"`
	Password          string            `yaml:"password" json:"password"`
	SSLMode           string            `yaml:"ssl_mode,omitempty" json:"ssl_mode,omitempty"`
	Params            map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	PoolSize          int               `yaml:"pool_size" json:"pool_size"`
	MaxIdleConns      int               `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration     `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration     `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration     `yaml:"connection_timeout" json:"connection_timeout"`
	QueryRate         float64           `yaml:"query_rate,omitempty" json:"query_rate,omitempty"` // Statements per second, 0 = unlimited
	QueryBurst        int               `yaml:"query_burst,omitempty" json:"query_burst,omitempty"`

	HydrationConcurrency int `yaml:"hydration_concurrency" json:"hydration_concurrency"`
}

// InternalAutoIncrementConfig controls how missing auto-increment values
// are resolved on insert.
type InternalAutoIncrementConfig struct {
	// LockType selects the locker serializing MAX+1 inserts:
	// "none", "memory", "redis" or "dynamodb".
	LockType        string                 `yaml:"lock_type" json:"lock_type"`
	LockTTL         time.Duration          `yaml:"lock_ttl" json:"lock_ttl"`
	StrictSequences bool                   `yaml:"strict_sequences" json:"strict_sequences"`
	RedisConfig     InternalRedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	DynamoDBConfig  InternalDynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string      `yaml:"endpoints" json:"endpoints"`
	Password     string        `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// InternalDynamoDBConfig contains DynamoDB-specific configuration.
type InternalDynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// InternalEventsConfig selects where record events are published.
type InternalEventsConfig struct {
	// Type is "none", "memory", "redis" or "kafka".
	Type        string              `yaml:"type" json:"type"`
	BufferSize  int                 `yaml:"buffer_size" json:"buffer_size"`
	Stream      string              `yaml:"stream" json:"stream"`
	MaxLen      int64               `yaml:"max_len" json:"max_len"`
	RedisConfig InternalRedisConfig `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	KafkaConfig InternalKafkaConfig `yaml:"kafka_config,omitempty" json:"kafka_config,omitempty"`
}

// InternalKafkaConfig contains Kafka-specific configuration.
type InternalKafkaConfig struct {
	Brokers         []string      `yaml:"brokers" json:"brokers"`
	Topic           string        `yaml:"topic" json:"topic"`
	GroupID         string        `yaml:"group_id" json:"group_id"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout    time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	RequiredAcks    int           `yaml:"required_acks" json:"required_acks"`
	MaxMessageBytes int           `yaml:"max_message_bytes" json:"max_message_bytes"`
	MinBytes        int           `yaml:"min_bytes" json:"min_bytes"`
	MaxBytes        int           `yaml:"max_bytes" json:"max_bytes"`
	MaxWait         time.Duration `yaml:"max_wait" json:"max_wait"`
}
