// Package config loads pantry settings from config.yaml in the config
// directory, with PANTRY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file inside the config directory.
	FileName = "config.yaml"

	envPrefix = "PANTRY"
)

// Config keys.
const (
	KeyBackend             = "backend"
	KeyDataDir             = "data_dir"
	KeyPageSize            = "page_size"
	KeyStoreTimeout        = "store.timeout"
	KeyNetworkOffline      = "network.offline"
	KeyNetworkProbeAddr    = "network.probe_addr"
	KeyNetworkProbeTimeout = "network.probe_timeout"
	KeyLoggingFile         = "logging.file"
	KeyLoggingLevel        = "logging.level"
)

// Defaults.
const (
	DefaultBackend      = types.BackendSQLite
	DefaultProbeTimeout = 2 * time.Second
	DefaultLogLevel     = "error"
)

// envKeys are the keys that PANTRY_* variables override. data_dir is
// absent: its environment variable ranks below config.yaml and is handled
// by the paths package.
var envKeys = []string{
	KeyBackend,
	KeyPageSize,
	KeyStoreTimeout,
	KeyNetworkOffline,
	KeyNetworkProbeAddr,
	KeyNetworkProbeTimeout,
	KeyLoggingFile,
	KeyLoggingLevel,
}

// ErrInvalidPageSize reports a page_size outside 1..types.MaxPageSize.
var ErrInvalidPageSize = errors.New("invalid page size")

// ErrNegativeDuration reports a negative timeout setting.
var ErrNegativeDuration = errors.New("duration must not be negative")

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Pantry configuration

# Backend selection: sqlite or bolt
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Items fetched per page
page_size: 10

store:
  # Per-call timeout, 0 for none
  timeout: 0s

network:
  # Treat the store as unreachable
  offline: false
  # host:port dialed before each store call; empty skips the check
  probe_addr: ""
  probe_timeout: 2s

logging:
  # JSON log file; empty logs to stderr
  file: ""
  level: error
`

// Config holds the pantry settings.
type Config struct {
	Backend  string        `mapstructure:"backend"`
	DataDir  string        `mapstructure:"data_dir"`
	PageSize int           `mapstructure:"page_size"`
	Store    StoreConfig   `mapstructure:"store"`
	Network  NetworkConfig `mapstructure:"network"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// StoreConfig holds store client settings.
type StoreConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// NetworkConfig holds connectivity check settings.
type NetworkConfig struct {
	Offline      bool          `mapstructure:"offline"`
	ProbeAddr    string        `mapstructure:"probe_addr"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// setDefaults registers every key so that environment overrides and
// Unmarshal see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyPageSize, types.DefaultPageSize)
	v.SetDefault(KeyStoreTimeout, time.Duration(0))
	v.SetDefault(KeyNetworkOffline, false)
	v.SetDefault(KeyNetworkProbeAddr, "")
	v.SetDefault(KeyNetworkProbeTimeout, DefaultProbeTimeout)
	v.SetDefault(KeyLoggingFile, "")
	v.SetDefault(KeyLoggingLevel, DefaultLogLevel)
}

// Load reads config.yaml from configDir. It creates the directory and a
// default config.yaml on first run. A missing config.yaml is not an error.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := c.StoreConfig("").Validate(); err != nil {
		return fmt.Errorf("%s %q: %w", KeyBackend, c.Backend, err)
	}
	if c.PageSize < 1 || c.PageSize > types.MaxPageSize {
		return fmt.Errorf("%w: %s must be between 1 and %d, got %d", ErrInvalidPageSize, KeyPageSize, types.MaxPageSize, c.PageSize)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeDuration, KeyStoreTimeout)
	}
	if c.Network.ProbeTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeDuration, KeyNetworkProbeTimeout)
	}
	return nil
}

// StoreConfig returns the backend configuration for dataDir.
func (c *Config) StoreConfig(dataDir string) types.Config {
	return types.Config{Backend: c.Backend, DataDir: dataDir}
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, FileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
