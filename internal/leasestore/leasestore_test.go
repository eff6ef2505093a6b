// internal/leasestore/leasestore_test.go
package leasestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubKVStore is a minimal store.KVStore used to exercise the registry.
type stubKVStore struct{}

func (stubKVStore) PutIfAbsent(context.Context, string, []byte, time.Time) (bool, error) {
	return true, nil
}
func (stubKVStore) Get(context.Context, string) (*store.Record, error) {
	return nil, store.ErrKeyNotFound
}
func (stubKVStore) Delete(context.Context, string) error { return nil }
func (stubKVStore) Close() error                         { return nil }

func stubConstructor(ctx context.Context, options Config, logger *observability.SLogger) (store.KVStore, error) {
	return stubKVStore{}, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub", stubConstructor)
	defer Unregister("stub")

	kv, err := New(context.Background(), "stub", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, kv)
}

func TestRegisterNilConstructorPanics(t *testing.T) {
	assert.PanicsWithValue(t, "taskleased: Register constructor is nil", func() {
		Register("nil-ctor", nil)
	})
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup", stubConstructor)
	defer Unregister("dup")

	assert.PanicsWithValue(t, "taskleased: Register called twice for constructor dup", func() {
		Register("dup", stubConstructor)
	})
}

func TestUnregister(t *testing.T) {
	Register("transient", stubConstructor)
	Unregister("transient")

	_, err := New(context.Background(), "transient", nil, nil)
	var unknown *store.UnknownConstructorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "transient", unknown.Store)
}

func TestConstructorsSorted(t *testing.T) {
	Register("zeta", stubConstructor)
	Register("alpha", stubConstructor)
	defer Unregister("zeta")
	defer Unregister("alpha")

	names := Constructors()
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "zeta")
	assert.IsIncreasing(t, names)
}

func TestNewUnknownConstructor(t *testing.T) {
	_, err := New(context.Background(), "no-such-store", nil, nil)

	var unknown *store.UnknownConstructorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no-such-store", unknown.Store)
}

func TestNewPropagatesConstructorError(t *testing.T) {
	ctorErr := errors.New("bad config")
	Register("failing", func(ctx context.Context, options Config, logger *observability.SLogger) (store.KVStore, error) {
		return nil, ctorErr
	})
	defer Unregister("failing")

	_, err := New(context.Background(), "failing", nil, nil)
	assert.ErrorIs(t, err, ctorErr)
}
