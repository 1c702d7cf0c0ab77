package orius

import (
	"github.com/rzpsarthak13/orius/internal/registry"
	"github.com/rzpsarthak13/orius/internal/schema"
)

// Config is the root configuration of a client. It is usually loaded from
// a YAML or JSON file with LoadConfig:
//
//	database:
//	  driver: firebird
//	  host: localhost
//	  database: /srv/cartorio.fdb
//	  username: SYSDBA
//	  password: masterkey
//	auto_increment:
//	  lock_type: redis        # none, memory, redis or dynamodb
//	events:
//	  type: kafka             # none, memory, redis or kafka
//	models:
//	  - table: T_ATO
//	    columns:
//	      - {name: ATO_ID, type: BIGINT, primary_key: true, auto_increment: true, sequence: GEN_T_ATO}
type Config = registry.InternalConfig

// Configuration sections.
type (
	DatabaseConfig      = registry.InternalDatabaseConfig
	AutoIncrementConfig = registry.InternalAutoIncrementConfig
	EventsConfig        = registry.InternalEventsConfig
	RedisConfig         = registry.InternalRedisConfig
	DynamoDBConfig      = registry.InternalDynamoDBConfig
	KafkaConfig         = registry.InternalKafkaConfig
	ModelDefinition     = schema.Definition
	ColumnDefinition    = schema.ColumnDefinition
)

// DefaultConfig returns a configuration for a local Firebird server with
// no locker and no event publisher. Database must still be set.
func DefaultConfig() *Config {
	return registry.DefaultInternalConfig()
}

// LoadConfig reads path (.yaml, .yml or .json) when it is not empty and
// then applies environment overrides (FDB_* and ORIUS_* variables). The
// merged result is validated, so the file may leave the connection to
// FDB_* variables.
func LoadConfig(path string) (*Config, error) {
	cm := registry.NewConfigManager()
	if path != "" {
		if err := cm.DecodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cm.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cm.GetConfig(), nil
}
