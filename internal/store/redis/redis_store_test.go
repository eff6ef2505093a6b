// internal/store/redis/redis_store_test.go
package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newStoreWithMock wires a Store to a MockRedisClient via the client
// factory hook, bypassing the connection ping in New.
func newStoreWithMock(t *testing.T, cfg *RedisConfig) (*Store, *MockRedisClient) {
	t.Helper()

	logger, _, err := observability.NewTestLogger()
	require.NoError(t, err)

	if cfg == nil {
		cfg = NewRedisConfig()
	}

	client := new(MockRedisClient)
	return &Store{
		client:    client,
		l:         logger,
		keyPrefix: cfg.KeyPrefix,
		config:    cfg,
	}, client
}

func evalResult(val interface{}, err error) *redis.Cmd {
	cmd := redis.NewCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func TestNewConnects(t *testing.T) {
	logger, _, err := observability.NewTestLogger()
	require.NoError(t, err)

	client := new(MockRedisClient)
	originalFn := newRedisClientFn
	newRedisClientFn = func(addr, password string, db int) redisClient {
		assert.Equal(t, "localhost:6379", addr)
		return client
	}
	defer func() { newRedisClientFn = originalFn }()

	t.Run("ping succeeds", func(t *testing.T) {
		client.On("Ping", mock.Anything).
			Return(redis.NewStatusResult("PONG", nil)).Once()

		s, err := New(context.Background(), NewRedisConfig(), logger)
		require.NoError(t, err)
		assert.NotNil(t, s)
		client.AssertExpectations(t)
	})

	t.Run("ping fails", func(t *testing.T) {
		client.On("Ping", mock.Anything).
			Return(redis.NewStatusResult("", errors.New("connection refused"))).Once()

		_, err := New(context.Background(), NewRedisConfig(), logger)
		assert.ErrorContains(t, err, "failed to connect to Redis")
		client.AssertExpectations(t)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := New(context.Background(), nil, logger)
		assert.ErrorIs(t, err, ErrConfigOptionMissing)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := NewRedisConfig()
		cfg.Host = ""
		_, err := New(context.Background(), cfg, logger)
		assert.Error(t, err)
	})
}

func TestRedisPutIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("written", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Eval", mock.Anything, putIfAbsentScript,
			[]string{"tasklease:key-1"}, mock.Anything).
			Return(evalResult(int64(1), nil)).Once()

		ok, err := s.PutIfAbsent(ctx, "key-1", []byte("owner"), time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, ok)
		client.AssertExpectations(t)
	})

	t.Run("held", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Eval", mock.Anything, putIfAbsentScript,
			[]string{"tasklease:key-1"}, mock.Anything).
			Return(evalResult(int64(0), nil)).Once()

		ok, err := s.PutIfAbsent(ctx, "key-1", []byte("owner"), time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, ok)
		client.AssertExpectations(t)
	})

	t.Run("script error", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Eval", mock.Anything, putIfAbsentScript,
			mock.Anything, mock.Anything).
			Return(evalResult(nil, errors.New("READONLY"))).Once()

		ok, err := s.PutIfAbsent(ctx, "key-1", []byte("owner"), time.Now().Add(time.Minute))
		assert.False(t, ok)
		assert.ErrorContains(t, err, "redis conditional write")
		client.AssertExpectations(t)
	})

	t.Run("unexpected reply type", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Eval", mock.Anything, putIfAbsentScript,
			mock.Anything, mock.Anything).
			Return(evalResult("OK", nil)).Once()

		_, err := s.PutIfAbsent(ctx, "key-1", []byte("owner"), time.Now().Add(time.Minute))
		assert.ErrorContains(t, err, "unexpected reply")
		client.AssertExpectations(t)
	})
}

func TestRedisGet(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Get", mock.Anything, "tasklease:key-1").
			Return(redis.NewStringResult("owner", nil)).Once()
		client.On("PTTL", mock.Anything, "tasklease:key-1").
			Return(redis.NewDurationResult(time.Minute, nil)).Once()

		rec, err := s.Get(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, "key-1", rec.Key)
		assert.Equal(t, []byte("owner"), rec.Payload)
		assert.WithinDuration(t, time.Now().Add(time.Minute), rec.ExpiresAt, time.Second)
		client.AssertExpectations(t)
	})

	t.Run("missing key", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Get", mock.Anything, "tasklease:key-1").
			Return(redis.NewStringResult("", redis.Nil)).Once()

		_, err := s.Get(ctx, "key-1")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
		client.AssertExpectations(t)
	})

	t.Run("read error", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Get", mock.Anything, "tasklease:key-1").
			Return(redis.NewStringResult("", errors.New("connection reset"))).Once()

		_, err := s.Get(ctx, "key-1")
		assert.ErrorContains(t, err, "redis read")
		client.AssertExpectations(t)
	})

	t.Run("ttl error", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Get", mock.Anything, "tasklease:key-1").
			Return(redis.NewStringResult("owner", nil)).Once()
		client.On("PTTL", mock.Anything, "tasklease:key-1").
			Return(redis.NewDurationResult(0, errors.New("connection reset"))).Once()

		_, err := s.Get(ctx, "key-1")
		assert.ErrorContains(t, err, "redis read ttl")
		client.AssertExpectations(t)
	})
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Del", mock.Anything, []string{"tasklease:key-1"}).
			Return(redis.NewIntResult(1, nil)).Once()

		assert.NoError(t, s.Delete(ctx, "key-1"))
		client.AssertExpectations(t)
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Del", mock.Anything, []string{"tasklease:key-1"}).
			Return(redis.NewIntResult(0, nil)).Once()

		assert.NoError(t, s.Delete(ctx, "key-1"))
		client.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		s, client := newStoreWithMock(t, nil)
		client.On("Del", mock.Anything, mock.Anything).
			Return(redis.NewIntResult(0, errors.New("connection reset"))).Once()

		assert.ErrorContains(t, s.Delete(ctx, "key-1"), "redis delete")
		client.AssertExpectations(t)
	})
}

func TestStoreKeyPrefix(t *testing.T) {
	cfg := NewRedisConfig()
	cfg.KeyPrefix = ""
	s, _ := newStoreWithMock(t, cfg)
	assert.Equal(t, "key-1", s.storeKey("key-1"))

	s, _ = newStoreWithMock(t, nil)
	assert.Equal(t, "tasklease:key-1", s.storeKey("key-1"))
}

func TestClose(t *testing.T) {
	s, client := newStoreWithMock(t, nil)
	client.On("Close").Return(nil).Once()
	assert.NoError(t, s.Close())
	client.AssertExpectations(t)
}
