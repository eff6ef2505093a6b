// internal/store/memory/memoryconfig.go
package memory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MemoryConfig holds configuration for the in-memory store
type MemoryConfig struct {
	TTL           int32         `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// NewMemoryConfig creates a new in-memory store configuration with default values
func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		TTL:           15,
		SweepInterval: time.Minute,
	}
}

// Validate ensures the in-memory store configuration is valid
func (c *MemoryConfig) Validate() error {
	var errs []string

	if c.TTL <= 0 {
		errs = append(errs, "TTL must be positive")
	}

	if c.SweepInterval < 0 {
		errs = append(errs, "sweep interval must not be negative")
	}

	if len(errs) > 0 {
		return errors.New("store validation failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// String returns a string representation of the in-memory store configuration
func (c *MemoryConfig) String() string {
	return fmt.Sprintf("MemoryConfig{TTL: %d, SweepInterval: %s}", c.TTL, c.SweepInterval)
}

// GetTableName returns a placeholder table name since the in-memory store has no tables
func (c *MemoryConfig) GetTableName() string {
	return "memory-store"
}

// GetTTL returns the configured default TTL in seconds
func (c *MemoryConfig) GetTTL() int32 {
	return c.TTL
}

// GetEndpoints returns an empty endpoint list; the store is in-process
func (c *MemoryConfig) GetEndpoints() []string {
	return []string{}
}
