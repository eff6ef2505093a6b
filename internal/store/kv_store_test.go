// internal/store/kv_store_test.go
package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordExpired(t *testing.T) {
	now := time.Now()
	rec := Record{Key: "k", ExpiresAt: now.Add(10 * time.Second)}

	assert.False(t, rec.Expired(now))
	assert.False(t, rec.Expired(now.Add(10*time.Second-time.Nanosecond)))

	// Expiry is inclusive.
	assert.True(t, rec.Expired(now.Add(10*time.Second)))
	assert.True(t, rec.Expired(now.Add(time.Minute)))
}

func TestInvalidConfigurationError(t *testing.T) {
	err := &InvalidConfigurationError{Store: "redis", Config: 42}
	assert.Contains(t, err.Error(), "redis")
	assert.Contains(t, err.Error(), "int")
}

func TestUnknownConstructorError(t *testing.T) {
	err := &UnknownConstructorError{Store: "etcd"}
	assert.Contains(t, err.Error(), `"etcd"`)
}
