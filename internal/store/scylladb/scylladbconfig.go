// internal/store/scylladb/scylladbconfig.go
package scylladb

import (
	"errors"
	"fmt"
	"strings"
)

// ScyllaDBConfig holds ScyllaDB-specific configuration
type ScyllaDBConfig struct {
	Host        string   `yaml:"host"`
	Port        int32    `yaml:"port"`
	Keyspace    string   `yaml:"keyspace"`
	Table       string   `yaml:"table"`
	TTL         int32    `yaml:"ttl"`
	Consistency string   `yaml:"consistency"`
	Endpoints   []string `yaml:"endpoints"`
}

// NewScyllaDBConfig creates a new ScyllaDB configuration with default values
func NewScyllaDBConfig() *ScyllaDBConfig {
	return &ScyllaDBConfig{
		Host:        "127.0.0.1",
		Port:        9042,
		Keyspace:    "tasklease",
		Table:       "leases",
		TTL:         15,
		Consistency: "CONSISTENCY_QUORUM",
		Endpoints:   []string{"localhost:9042"},
	}
}

// Validate ensures the ScyllaDB configuration is valid
func (c *ScyllaDBConfig) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Keyspace == "" {
		errs = append(errs, "keyspace is required")
	}

	if c.Table == "" {
		errs = append(errs, "table is required")
	}

	if c.TTL <= 0 {
		errs = append(errs, "TTL must be positive")
	}

	if len(errs) > 0 {
		return errors.New("store validation failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// String returns a string representation of the ScyllaDB configuration
func (c *ScyllaDBConfig) String() string {
	return fmt.Sprintf(
		"ScyllaDBConfig{Host: %s, Port: %d, Keyspace: %s, Table: %s, TTL: %d, Consistency: %s}",
		c.Host,
		c.Port,
		c.Keyspace,
		c.Table,
		c.TTL,
		c.Consistency,
	)
}

// GetTableName returns the table name
func (c *ScyllaDBConfig) GetTableName() string {
	return c.Table
}

// GetTTL returns the configured TTL
func (c *ScyllaDBConfig) GetTTL() int32 {
	return c.TTL
}

// GetEndpoints returns the configured endpoints
func (c *ScyllaDBConfig) GetEndpoints() []string {
	return c.Endpoints
}
