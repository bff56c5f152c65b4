package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kodiview/kodiview/internal/kodi"
)

// Config holds the complete application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Monitored Kodi devices
	Devices []kodi.DeviceConfig `yaml:"devices" json:"devices"`

	// Display preference storage
	Preferences PreferencesConfig `yaml:"preferences" json:"preferences"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host" env:"KODIVIEW_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" json:"port" env:"KODIVIEW_PORT" default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" env:"KODIVIEW_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" env:"KODIVIEW_WRITE_TIMEOUT" default:"30s"`
	EnableCORS     bool          `yaml:"enable_cors" json:"enable_cors" env:"KODIVIEW_ENABLE_CORS" default:"true"`
	TrustedProxies []string      `yaml:"trusted_proxies" json:"trusted_proxies" env:"KODIVIEW_TRUSTED_PROXIES"`
}

// DatabaseConfig holds database configuration for the session store.
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Path            string        `yaml:"path" json:"path" env:"KODIVIEW_DATABASE_PATH"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"KODIVIEW_DATA_DIR" default:"./data"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER" default:"kodiview"`
	Password        string        `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"POSTGRES_DB" default:"kodiview"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"2h"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// PreferencesConfig holds display preference storage configuration.
type PreferencesConfig struct {
	Path         string `yaml:"path" json:"path" env:"KODIVIEW_PREFERENCES_PATH"`
	WatchChanges bool   `yaml:"watch_changes" json:"watch_changes" env:"KODIVIEW_PREFERENCES_WATCH" default:"true"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"KODIVIEW_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"KODIVIEW_LOG_FORMAT" default:"text"`
}

// ConfigManager manages application configuration.
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called when configuration changes.
type ConfigWatcher func(oldConfig, newConfig *Config)

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager instance.
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a new configuration manager.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			DataDir:         "./data",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 2 * time.Hour,
		},
		Preferences: PreferencesConfig{
			WatchChanges: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := *cm.config
	cm.configPath = configPath

	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := cm.loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Environment-declared devices extend and override the file list
	mergeDevices(newConfig, devicesFromEnv())

	if err := cm.validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cm.applyDerivedConfig(newConfig)

	cm.config = newConfig

	for _, watcher := range cm.watchers {
		go watcher(&oldConfig, newConfig)
	}

	return nil
}

// GetConfig returns the current configuration (thread-safe).
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// AddWatcher adds a configuration change watcher.
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

func (cm *ConfigManager) loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// devicesFromEnv reads the numbered device variables (KODI_HOST_1,
// KODI_USERNAME_1, KODI_PASSWORD_1, ...) plus the legacy single-device
// form (KODI_HOST without a suffix). Numbering starts at 1 and stops at
// the first gap.
func devicesFromEnv() []kodi.DeviceConfig {
	var devices []kodi.DeviceConfig

	if host := os.Getenv("KODI_HOST"); host != "" {
		devices = append(devices, kodi.DeviceConfig{
			ID:       1,
			Host:     normalizeHost(host),
			Username: os.Getenv("KODI_USERNAME"),
			Password: os.Getenv("KODI_PASSWORD"),
		})
	}

	for n := 1; ; n++ {
		host := os.Getenv(fmt.Sprintf("KODI_HOST_%d", n))
		if host == "" {
			break
		}
		devices = append(devices, kodi.DeviceConfig{
			ID:       n,
			Host:     normalizeHost(host),
			Username: os.Getenv(fmt.Sprintf("KODI_USERNAME_%d", n)),
			Password: os.Getenv(fmt.Sprintf("KODI_PASSWORD_%d", n)),
		})
	}
	return devices
}

// mergeDevices overlays env devices on the file list by ID, then sorts
// by ID for a stable listing order.
func mergeDevices(config *Config, fromEnv []kodi.DeviceConfig) {
	byID := make(map[int]kodi.DeviceConfig, len(config.Devices))
	for _, d := range config.Devices {
		d.Host = normalizeHost(d.Host)
		byID[d.ID] = d
	}
	for _, d := range fromEnv {
		byID[d.ID] = d
	}

	merged := make([]kodi.DeviceConfig, 0, len(byID))
	for _, d := range byID {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	config.Devices = merged
}

// normalizeHost ensures a device host carries a scheme and no trailing
// slash.
func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host
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
		}
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func (cm *ConfigManager) validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	seen := make(map[int]bool, len(config.Devices))
	for _, d := range config.Devices {
		if d.ID <= 0 {
			return fmt.Errorf("invalid device id: %d", d.ID)
		}
		if d.Host == "" {
			return fmt.Errorf("device %d has no host", d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate device id: %d", d.ID)
		}
		seen[d.ID] = true
	}

	return nil
}

func (cm *ConfigManager) applyDerivedConfig(config *Config) {
	if config.Database.Path == "" && config.Database.Type == "sqlite" {
		config.Database.Path = filepath.Join(config.Database.DataDir, "kodiview.db")
	}
	if config.Preferences.Path == "" {
		config.Preferences.Path = filepath.Join(config.Database.DataDir, "preferences.json")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Global convenience functions

// Get returns the current global configuration.
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path.
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher.
func AddWatcher(watcher ConfigWatcher) {
	GetConfigManager().AddWatcher(watcher)
}
