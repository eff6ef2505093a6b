// internal/store/errors.go
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is thrown when the key is not found in the store during a Get operation.
	// An expired-but-unpurged record counts as not found.
	ErrKeyNotFound = errors.New("key not found in store")
)

// InvalidConfigurationError is thrown when the type of the configuration is not supported by a store.
type InvalidConfigurationError struct {
	Store  string
	Config any
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration type: %T", e.Store, e.Config)
}

// UnknownConstructorError is thrown when a requested store is not registered.
type UnknownConstructorError struct {
	Store string
}

func (e UnknownConstructorError) Error() string {
	return fmt.Sprintf("unknown constructor %q (forgotten import?)", e.Store)
}
