// internal/config/loaders.go
package config

import (
	"fmt"

	"github.com/calston/taskleased/internal/store/dynamodb"
	"github.com/calston/taskleased/internal/store/memory"
	"github.com/calston/taskleased/internal/store/redis"
	"github.com/calston/taskleased/internal/store/scylladb"
	"github.com/spf13/viper"
)

// MemoryConfigLoader loads in-memory store configuration
func MemoryConfigLoader(v *viper.Viper) (*memory.MemoryConfig, error) {
	// Set in-memory store defaults
	v.SetDefault("memoryConfig.ttl", 15)
	v.SetDefault("memoryConfig.sweepInterval", "1m")

	config := memory.NewMemoryConfig()
	if err := v.UnmarshalKey("memoryConfig", config); err != nil {
		return nil, fmt.Errorf("unable to decode in-memory store config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid in-memory store configuration: %w", err)
	}

	return config, nil
}

// RedisConfigLoader loads Redis configuration
func RedisConfigLoader(v *viper.Viper) (*redis.RedisConfig, error) {
	// Set Redis defaults
	v.SetDefault("redisConfig.host", "localhost")
	v.SetDefault("redisConfig.port", 6379)
	v.SetDefault("redisConfig.db", 0)
	v.SetDefault("redisConfig.ttl", 15)
	v.SetDefault("redisConfig.keyPrefix", "tasklease")

	config := redis.NewRedisConfig()
	if err := v.UnmarshalKey("redisConfig", config); err != nil {
		return nil, fmt.Errorf("unable to decode Redis config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redis configuration: %w", err)
	}

	return config, nil
}

// ScyllaConfigLoader loads ScyllaDB configuration
func ScyllaConfigLoader(v *viper.Viper) (*scylladb.ScyllaDBConfig, error) {
	// Set ScyllaDB defaults
	v.SetDefault("scyllaDbConfig.host", "127.0.0.1")
	v.SetDefault("scyllaDbConfig.port", 9042)
	v.SetDefault("scyllaDbConfig.keyspace", "tasklease")
	v.SetDefault("scyllaDbConfig.table", "leases")
	v.SetDefault("scyllaDbConfig.ttl", 15)
	v.SetDefault("scyllaDbConfig.consistency", "CONSISTENCY_QUORUM")
	v.SetDefault("scyllaDbConfig.endpoints", []string{"localhost:9042"})

	config := scylladb.NewScyllaDBConfig()
	if err := v.UnmarshalKey("scyllaDbConfig", config); err != nil {
		return nil, fmt.Errorf("unable to decode ScyllaDB config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ScyllaDB configuration: %w", err)
	}

	return config, nil
}

// DynamoConfigLoader loads DynamoDB configuration
func DynamoConfigLoader(v *viper.Viper) (*dynamodb.DynamoDBConfig, error) {
	// Set DynamoDB defaults
	v.SetDefault("dynamoDbConfig.region", "us-west-2")
	v.SetDefault("dynamoDbConfig.table", "task-leases")
	v.SetDefault("dynamoDbConfig.ttl", 15)
	v.SetDefault("dynamoDbConfig.endpoints", []string{"dynamodb.us-west-2.amazonaws.com"})
	v.SetDefault("dynamoDbConfig.profile", "default")

	config := dynamodb.NewDynamoDBConfig()
	if err := v.UnmarshalKey("dynamoDbConfig", config); err != nil {
		return nil, fmt.Errorf("unable to decode DynamoDB config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DynamoDB configuration: %w", err)
	}

	return config, nil
}
