// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calston/taskleased/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfigYAML = `
backend:
  type: memory
observability:
  serviceName: taskleased
  serviceVersion: "0.1.0"
  environment: test
  otelEndpoint: localhost:4317
logger:
  level: LOG_LEVELS_DEBUGLEVEL
worker:
  concurrency: 2
  queueSize: 16
  taskTimeout: 10s
schedules:
  - name: sync_vms
    args: host-1
    every: 30s
memoryConfig:
  ttl: 30
  sweepInterval: 5s
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", validConfigYAML)

	_, cfg, err := LoadConfig(dir, MemoryConfigLoader)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Backend.Type)
	assert.Equal(t, "taskleased", cfg.Observability.ServiceName)
	assert.Equal(t, "test", cfg.Observability.Environment)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, 16, cfg.Worker.QueueSize)
	assert.Equal(t, 10*time.Second, cfg.Worker.TaskTimeout)
	assert.Equal(t, int32(30), cfg.Store.TTL)
	assert.Equal(t, 5*time.Second, cfg.Store.SweepInterval)

	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "sync_vms", cfg.Schedules[0].Name)
	assert.Equal(t, "host-1", cfg.Schedules[0].Args)
	assert.Equal(t, 30*time.Second, cfg.Schedules[0].Every)
}

func TestLoadConfigFromFilePath(t *testing.T) {
	dir := t.TempDir()

	// The flag points at a file; loading must read that exact file, not
	// search the directory for config.yaml.
	path := writeConfigFile(t, dir, "taskleased.yaml", validConfigYAML)

	_, cfg, err := LoadConfig(path, MemoryConfigLoader)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Backend.Type)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, int32(30), cfg.Store.TTL)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
backend:
  type: memory
`)

	_, cfg, err := LoadConfig(dir, MemoryConfigLoader)
	require.NoError(t, err)

	assert.Equal(t, "taskleased", cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 64, cfg.Worker.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Worker.TaskTimeout)
	assert.Equal(t, int32(15), cfg.Store.TTL)
	assert.Empty(t, cfg.Schedules)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "zero worker concurrency",
			yaml: `
worker:
  concurrency: 0
`,
			wantErr: "worker concurrency must be positive",
		},
		{
			name: "negative queue size",
			yaml: `
worker:
  queueSize: -1
`,
			wantErr: "worker queue size must not be negative",
		},
		{
			name: "schedule without name",
			yaml: `
schedules:
  - args: host-1
    every: 30s
`,
			wantErr: "name is required",
		},
		{
			name: "schedule without interval",
			yaml: `
schedules:
  - name: sync_vms
`,
			wantErr: "interval must be positive",
		},
		{
			name: "missing service name",
			yaml: `
observability:
  serviceName: ""
`,
			wantErr: "service name is required",
		},
		{
			name: "invalid store config",
			yaml: `
memoryConfig:
  ttl: -5
`,
			wantErr: "failed to load store config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfigFile(t, dir, "config.yaml", tt.yaml)

			_, _, err := LoadConfig(dir, MemoryConfigLoader)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigLoaderWatchers(t *testing.T) {
	cl := NewConfigLoader(t.TempDir())

	var got interface{}
	cl.AddWatcher(func(cfg interface{}) { got = cfg })

	cfg := &GlobalConfig[*memory.MemoryConfig]{}
	cl.notifyWatchers(cfg)

	assert.Same(t, cfg, got.(*GlobalConfig[*memory.MemoryConfig]))
}

func TestDetectBackendType(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("TASKLEASED_BACKEND_TYPE", "Redis")

		backend, err := DetectBackendType("/nonexistent")
		require.NoError(t, err)
		assert.Equal(t, "redis", backend)
	})

	t.Run("compat env override", func(t *testing.T) {
		t.Setenv("TASKLEASED_BACKEND", "dynamo")

		backend, err := DetectBackendType("/nonexistent")
		require.NoError(t, err)
		assert.Equal(t, "dynamodb", backend)
	})

	t.Run("from file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, "config.yaml", "backend:\n  type: scylla\n")

		backend, err := DetectBackendType(path)
		require.NoError(t, err)
		assert.Equal(t, "scylladb", backend)
	})

	t.Run("from directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "taskleased.yaml", "backend:\n  type: memory\n")

		backend, err := DetectBackendType(dir)
		require.NoError(t, err)
		assert.Equal(t, "memory", backend)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := DetectBackendType("/nonexistent/config.yaml")
		assert.ErrorContains(t, err, "configuration file not found")
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := DetectBackendType(t.TempDir())
		assert.ErrorContains(t, err, "no config file found")
	})

	t.Run("missing backend type", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, "config.yaml", "worker:\n  concurrency: 2\n")

		_, err := DetectBackendType(path)
		assert.ErrorContains(t, err, "backend type not specified")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, "config.yaml", "backend: [\n")

		_, err := DetectBackendType(path)
		assert.ErrorContains(t, err, "invalid configuration file")
	})
}

func TestNormalizeBackendType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "memory", want: "memory"},
		{in: "mem", want: "memory"},
		{in: "in-memory", want: "memory"},
		{in: "Redis", want: "redis"},
		{in: "DYNAMO", want: "dynamodb"},
		{in: "dynamodb", want: "dynamodb"},
		{in: "scylla", want: "scylladb"},
		{in: " scylladb ", want: "scylladb"},
		{in: "etcd", want: "etcd"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeBackendType(tt.in))
		})
	}
}
