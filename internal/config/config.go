// Package config handles configuration loading and watching
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ConfigLoader handles loading of configurations
type ConfigLoader struct {
	v             *viper.Viper
	mu            sync.RWMutex
	watchers      []func(interface{})
	currentConfig interface{}
}

// ConfigLoadFn defines a function type for loading specific store configurations
type ConfigLoadFn[T store.StoreConfig] func(*viper.Viper) (T, error)

// GlobalConfig represents the complete application configuration
type GlobalConfig[T store.StoreConfig] struct {
	Store         T                          `yaml:"-"`
	Observability observability.Config       `yaml:"observability"`
	Logger        observability.LoggerConfig `yaml:"logger"`
	Backend       BackendConfig              `yaml:"backend"`
	Worker        WorkerConfig               `yaml:"worker"`
	Schedules     []ScheduleConfig           `yaml:"schedules"`
}

// BackendConfig represents the backend configuration section
type BackendConfig struct {
	Type string `yaml:"type"`
}

// WorkerConfig represents the task runner configuration section
type WorkerConfig struct {
	Concurrency int           `yaml:"concurrency"`
	QueueSize   int           `yaml:"queueSize"`
	TaskTimeout time.Duration `yaml:"taskTimeout"`
}

// ScheduleConfig defines a recurring named task fed to the runner
type ScheduleConfig struct {
	Name  string        `yaml:"name"`
	Args  string        `yaml:"args"`
	Every time.Duration `yaml:"every"`
}

// RootConfig is the minimal shape read during backend detection
type RootConfig struct {
	Backend BackendConfig `yaml:"backend"`
}

// NewConfigLoader creates a new configuration loader. configPath may be
// a config file or a directory to search for one.
func NewConfigLoader(configPath string) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")
	if fi, err := os.Stat(configPath); err == nil && !fi.IsDir() {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configPath)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TaskLeased")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigLoader{
		v:        v,
		watchers: make([]func(interface{}), 0),
	}
}

// AddWatcher adds a callback function that will be called when configuration changes
func (cl *ConfigLoader) AddWatcher(callback func(interface{})) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.watchers = append(cl.watchers, callback)
}

// GetCurrentConfig returns the current configuration
func (cl *ConfigLoader) GetCurrentConfig() interface{} {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.currentConfig
}

// notifyWatchers calls all registered watchers with the new configuration
func (cl *ConfigLoader) notifyWatchers(newConfig interface{}) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	for _, watcher := range cl.watchers {
		watcher(newConfig)
	}
}

// LoadConfig loads the complete application configuration including store config
func LoadConfig[T store.StoreConfig](configPath string, loadFn ConfigLoadFn[T]) (*ConfigLoader, *GlobalConfig[T], error) {
	cl := NewConfigLoader(configPath)

	// Set defaults
	setDefaults(cl.v)

	// Read configuration file
	if err := cl.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
		fmt.Println("No config file found, using defaults and environment variables")
	}

	// Load initial configuration
	config, err := loadConfiguration(cl.v, loadFn)
	if err != nil {
		return nil, nil, err
	}

	// Store the current configuration
	cl.mu.Lock()
	cl.currentConfig = config
	cl.mu.Unlock()

	// Setup configuration watching
	cl.v.WatchConfig()
	cl.v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		// Reload configuration
		newConfig, err := loadConfiguration(cl.v, loadFn)
		if err != nil {
			fmt.Printf("Error reloading configuration: %v\n", err)
			return
		}

		// Update current configuration and notify watchers
		cl.mu.Lock()
		cl.currentConfig = newConfig
		cl.mu.Unlock()

		cl.notifyWatchers(newConfig)
	})

	return cl, config, nil
}

// loadConfiguration loads configuration using the provided loader function
func loadConfiguration[T store.StoreConfig](v *viper.Viper, loadFn ConfigLoadFn[T]) (*GlobalConfig[T], error) {
	// Load store config using the provided function
	storeConfig, err := loadFn(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load store config: %w", err)
	}

	// Create and populate global config
	config := &GlobalConfig[T]{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode global config: %w", err)
	}

	// Set the store config
	config.Store = storeConfig

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates all configuration sections
func validateConfig[T store.StoreConfig](cfg *GlobalConfig[T]) error {
	if err := cfg.Store.Validate(); err != nil {
		return fmt.Errorf("store configuration error: %w", err)
	}

	// Validate OpenTelemetry config
	if cfg.Observability.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if cfg.Observability.ServiceVersion == "" {
		return fmt.Errorf("service version is required")
	}
	if cfg.Observability.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if cfg.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required")
	}

	// Validate worker config
	if cfg.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive")
	}
	if cfg.Worker.QueueSize < 0 {
		return fmt.Errorf("worker queue size must not be negative")
	}

	// Validate schedules
	for i, s := range cfg.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule %d: name is required", i)
		}
		if s.Every <= 0 {
			return fmt.Errorf("schedule %d (%s): interval must be positive", i, s.Name)
		}
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// OpenTelemetry defaults
	v.SetDefault("observability.serviceName", "taskleased")
	v.SetDefault("observability.serviceVersion", "0.1.0")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.otelEndpoint", "localhost:4317")

	// Logger defaults
	v.SetDefault("logger.level", "LOG_LEVELS_INFOLEVEL")

	// Worker defaults
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queueSize", 64)
	v.SetDefault("worker.taskTimeout", 30*time.Second)
}
