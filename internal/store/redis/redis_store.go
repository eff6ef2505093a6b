// internal/store/redis/redis_store.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calston/taskleased/internal/leasestore"
	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/redis/go-redis/v9"
)

// Error definitions
var (
	ErrConfigOptionMissing = errors.New("Redis requires a config option")
)

// StoreName is the registered name of the Redis store
const StoreName = "redis"

// putIfAbsentScript performs the create-if-absent-or-expired write in one
// atomic step. Redis treats expired keys as absent, so EXISTS is the
// whole unexpired check. Records with a past expiry cannot be stored in
// Redis; writing one means writing and discarding in the same script,
// which preserves the caller-visible outcome.
const putIfAbsentScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[1], ttl)
else
	redis.call("DEL", KEYS[1])
end
return 1
`

// redisClient defines the interface for Redis operations
// This allows for easier mocking in tests
type redisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Factory function for creating Redis clients
// Can be replaced during tests for mocking
var newRedisClientFn = func(addr string, password string, db int) redisClient {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Register the Redis store with the leasestore package
func init() {
	leasestore.Register(StoreName, newStore)
}

// newStore creates a new Redis store instance from configuration
func newStore(ctx context.Context, options leasestore.Config, logger *observability.SLogger) (store.KVStore, error) {
	cfg, ok := options.(*RedisConfig)
	if !ok && options != nil {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(ctx, cfg, logger)
}

// Store implements the store.KVStore interface for Redis
type Store struct {
	client    redisClient
	l         *observability.SLogger
	keyPrefix string
	config    *RedisConfig
}

// GetConfig returns the current store configuration
func (s *Store) GetConfig() store.StoreConfig {
	return s.config
}

// New creates a new Redis store with the provided configuration
func New(ctx context.Context, config *RedisConfig, logger *observability.SLogger) (*Store, error) {
	if config == nil {
		return nil, ErrConfigOptionMissing
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	client := newRedisClientFn(addr, config.Password, config.DB)

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Errorf("Error connecting to Redis: %v", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client:    client,
		l:         logger,
		keyPrefix: config.KeyPrefix,
		config:    config,
	}, nil
}

// storeKey namespaces a record key under the configured prefix
func (s *Store) storeKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

// PutIfAbsent atomically writes a record at key unless one is already
// there. Expiry is delegated to Redis key TTLs.
func (s *Store) PutIfAbsent(ctx context.Context, key string, payload []byte, expiresAt time.Time) (bool, error) {
	ttlMillis := time.Until(expiresAt).Milliseconds()

	res, err := s.client.Eval(ctx, putIfAbsentScript,
		[]string{s.storeKey(key)}, payload, ttlMillis).Result()
	if err != nil {
		s.l.Errorf("Error writing record: %v", err)
		return false, fmt.Errorf("redis conditional write: %w", err)
	}

	written, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("redis conditional write: unexpected reply %T", res)
	}

	return written == 1, nil
}

// Get retrieves the record at key. Redis purges expired keys, so a hit
// is always unexpired.
func (s *Store) Get(ctx context.Context, key string) (*store.Record, error) {
	rkey := s.storeKey(key)

	payload, err := s.client.Get(ctx, rkey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, store.ErrKeyNotFound
		}
		s.l.Errorf("Error reading record: %v", err)
		return nil, fmt.Errorf("redis read: %w", err)
	}

	rec := &store.Record{
		Key:     key,
		Payload: []byte(payload),
	}

	ttl, err := s.client.PTTL(ctx, rkey).Result()
	if err != nil {
		s.l.Errorf("Error reading record TTL: %v", err)
		return nil, fmt.Errorf("redis read ttl: %w", err)
	}
	if ttl > 0 {
		rec.ExpiresAt = time.Now().Add(ttl)
	}

	return rec, nil
}

// Delete removes any record at key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Del(ctx, s.storeKey(key)).Result(); err != nil {
		s.l.Errorf("Error deleting record: %v", err)
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		s.l.Errorf("Error closing Redis connection: %v", err)
		return err
	}
	return nil
}
