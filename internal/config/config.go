package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// Debug enables the devtools inspector at startup
	Debug bool `yaml:"debug" json:"debug" env:"STREAMIO_DEBUG"`

	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Playback plugin configuration
	Playback PlaybackConfig `yaml:"playback" json:"playback"`

	// HTTP client plugin configuration
	HTTPClient HTTPClientConfig `yaml:"http_client" json:"http_client"`

	// Key-value store plugin configuration
	Store StoreConfig `yaml:"store" json:"store"`

	// Devtools configuration
	Devtools DevtoolsConfig `yaml:"devtools" json:"devtools"`
}

// ServerConfig holds host server configuration
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host" env:"STREAMIO_HOST"`
	Port           int           `yaml:"port" json:"port" env:"STREAMIO_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" env:"STREAMIO_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" env:"STREAMIO_WRITE_TIMEOUT"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"STREAMIO_MAX_HEADER_BYTES"`
	EnableCORS     bool          `yaml:"enable_cors" json:"enable_cors" env:"STREAMIO_ENABLE_CORS"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"STREAMIO_DATABASE_TYPE"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"STREAMIO_DATA_DIR"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"STREAMIO_DATABASE_PATH"`
	Host         string `yaml:"host" json:"host" env:"STREAMIO_POSTGRES_HOST"`
	Port         int    `yaml:"port" json:"port" env:"STREAMIO_POSTGRES_PORT"`
	Username     string `yaml:"username" json:"username" env:"STREAMIO_POSTGRES_USER"`
	Password     string `yaml:"password" json:"password" env:"STREAMIO_POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"STREAMIO_POSTGRES_DB"`
	LogQueries   bool   `yaml:"log_queries" json:"log_queries" env:"STREAMIO_DB_LOG_QUERIES"`
}

// PlaybackConfig holds playback plugin configuration
type PlaybackConfig struct {
	MediaDirs        []string      `yaml:"media_dirs" json:"media_dirs" env:"STREAMIO_MEDIA_DIRS"`
	ProgressInterval time.Duration `yaml:"progress_interval" json:"progress_interval" env:"STREAMIO_PROGRESS_INTERVAL"`
	ArtworkQuality   float32       `yaml:"artwork_quality" json:"artwork_quality"`
}

// HTTPClientConfig holds outbound HTTP plugin configuration
type HTTPClientConfig struct {
	Timeout         time.Duration `yaml:"timeout" json:"timeout" env:"STREAMIO_HTTP_TIMEOUT"`
	MaxResponseSize int64         `yaml:"max_response_size" json:"max_response_size" env:"STREAMIO_HTTP_MAX_RESPONSE_SIZE"`
	MaxRedirects    int           `yaml:"max_redirects" json:"max_redirects" env:"STREAMIO_HTTP_MAX_REDIRECTS"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" env:"STREAMIO_HTTP_USER_AGENT"`
	AllowedSchemes  []string      `yaml:"allowed_schemes" json:"allowed_schemes"`
}

// StoreConfig holds key-value store plugin configuration
type StoreConfig struct {
	MaxValueSize int64 `yaml:"max_value_size" json:"max_value_size" env:"STREAMIO_STORE_MAX_VALUE_SIZE"`
}

// DevtoolsConfig holds devtools inspector configuration
type DevtoolsConfig struct {
	WatchConfig bool `yaml:"watch_config" json:"watch_config" env:"STREAMIO_DEVTOOLS_WATCH_CONFIG"`
	EventBuffer int  `yaml:"event_buffer" json:"event_buffer" env:"STREAMIO_DEVTOOLS_EVENT_BUFFER"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Debug: false,
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8090,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1MB
			EnableCORS:     true,
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: "./streamio-data",
			Host:    "localhost",
			Port:    5432,
		},
		Playback: PlaybackConfig{
			ProgressInterval: 5 * time.Second,
			ArtworkQuality:   90,
		},
		HTTPClient: HTTPClientConfig{
			Timeout:         30 * time.Second,
			MaxResponseSize: 10 * 1024 * 1024, // 10MB
			MaxRedirects:    5,
			UserAgent:       "Streamio/1.0",
			AllowedSchemes:  []string{"http", "https"},
		},
		Store: StoreConfig{
			MaxValueSize: 1024 * 1024, // 1MB
		},
		Devtools: DevtoolsConfig{
			WatchConfig: true,
			EventBuffer: 100,
		},
	}
}

// Manager owns the loaded configuration and notifies watchers on reload
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	watchers   []Watcher
}

// Watcher is called when configuration changes
type Watcher func(oldConfig, newConfig *Config)

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global configuration manager instance
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager()
	})
	return globalManager
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config:   DefaultConfig(),
		watchers: make([]Watcher, 0),
	}
}

// LoadConfig loads configuration from an optional file plus environment
// overrides. Defaults apply first, then the file, then the environment.
func (m *Manager) LoadConfig(configPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := *m.config
	m.configPath = configPath

	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := newConfig.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)

	m.config = newConfig

	for _, watcher := range m.watchers {
		go watcher(&oldConfig, newConfig)
	}

	return nil
}

// GetConfig returns the current configuration (thread-safe)
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// ConfigPath returns the path the configuration was loaded from, if any
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// AddWatcher adds a configuration change watcher
func (m *Manager) AddWatcher(watcher Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, watcher)
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.HTTPClient.MaxResponseSize <= 0 {
		return fmt.Errorf("http client max response size must be positive")
	}

	for _, scheme := range c.HTTPClient.AllowedSchemes {
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("unsupported http client scheme: %s", scheme)
		}
	}

	return nil
}

// Helper functions

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(value, ",")
			for i, v := range values {
				values[i] = strings.TrimSpace(v)
			}
			field.Set(reflect.ValueOf(values))
		} else {
			return fmt.Errorf("unsupported slice element type: %v", field.Type().Elem().Kind())
		}
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "streamio.db")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Package-level convenience functions matching the global manager

// Get returns the current configuration
func Get() *Config {
	return GetManager().GetConfig()
}

// Load loads configuration from the given path
func Load(configPath string) error {
	return GetManager().LoadConfig(configPath)
}

// AddWatcher adds a configuration change watcher
func AddWatcher(watcher Watcher) {
	GetManager().AddWatcher(watcher)
}
