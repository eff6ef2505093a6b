// internal/store/redis/redisconfig_test.go
package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RedisConfig)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*RedisConfig) {},
		},
		{
			name:    "missing host",
			mutate:  func(c *RedisConfig) { c.Host = "" },
			wantErr: "host is required",
		},
		{
			name:    "port too low",
			mutate:  func(c *RedisConfig) { c.Port = 0 },
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "port too high",
			mutate:  func(c *RedisConfig) { c.Port = 70000 },
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *RedisConfig) { c.TTL = 0 },
			wantErr: "TTL must be positive",
		},
		{
			name:    "negative db",
			mutate:  func(c *RedisConfig) { c.DB = -1 },
			wantErr: "DB number must be non-negative",
		},
		{
			name:    "empty replica address",
			mutate:  func(c *RedisConfig) { c.Replicas = []string{"replica-1:6379", ""} },
			wantErr: "replica 1: address cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewRedisConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := NewRedisConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6379, cfg.Port)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, int32(15), cfg.TTL)
	assert.Equal(t, "tasklease", cfg.KeyPrefix)
	assert.Equal(t, int32(15), cfg.GetTTL())
	assert.Equal(t, []string{"localhost:6379"}, cfg.GetEndpoints())
}

func TestRedisConfigClone(t *testing.T) {
	cfg := NewRedisConfig()
	cfg.Replicas = []string{"replica-1:6379"}

	clone := cfg.Clone()
	assert.Equal(t, cfg, clone)

	clone.Replicas[0] = "replica-2:6379"
	assert.Equal(t, "replica-1:6379", cfg.Replicas[0])
}

func TestRedisConfigString(t *testing.T) {
	cfg := NewRedisConfig()
	cfg.Password = "hunter2"

	s := cfg.String()
	assert.Contains(t, s, "localhost")
	assert.NotContains(t, s, "hunter2")
}
