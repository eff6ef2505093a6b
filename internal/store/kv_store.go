// internal/store/kv_store.go
package store

import (
	"context"
	"time"
)

// Record is a single keyed entry in an expiring key-value store.
// The payload is opaque to the store; existence is the only signal
// callers rely on.
type Record struct {
	Key       string
	Payload   []byte
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at the given time.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// KVStore provides operations over an expiring key-value store.
//
// Records past their expiry are logically absent: Get treats them as
// missing and PutIfAbsent treats them as overwritable, whether or not
// the backend has physically purged them.
type KVStore interface {
	// PutIfAbsent atomically writes a record at key with the given expiry
	// unless an unexpired record already exists there. It returns whether
	// the write happened. The check-then-set is serialized through the
	// backend's native conditional-write primitive.
	PutIfAbsent(ctx context.Context, key string, payload []byte, expiresAt time.Time) (bool, error)

	// Get retrieves the unexpired record at key, or ErrKeyNotFound when
	// the key is missing or expired.
	Get(ctx context.Context, key string) (*Record, error)

	// Delete removes any record at key, expired or not. Deleting a
	// missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}
