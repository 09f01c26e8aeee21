package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// SignalsConfig toggles the individual duplicate detection signals.
type SignalsConfig struct {
	Names    bool `mapstructure:"names"`
	Sizes    bool `mapstructure:"sizes"`
	Metadata bool `mapstructure:"metadata"`
	Visual   bool `mapstructure:"visual"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	Threshold             float64       `mapstructure:"threshold"`
	MetadataPartialWeight float64       `mapstructure:"metadata_partial_weight"`
	DefaultPath           string        `mapstructure:"default_path"`
	OutputFolder          string        `mapstructure:"output_folder"`
	Workers               int           `mapstructure:"workers"`
	Format                string        `mapstructure:"format"`
	Signals               SignalsConfig `mapstructure:"signals"`
	Cache                 struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Manifest struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"manifest"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/dedup/config.yaml
//   - $HOME/.config/dedup/config.yaml
//
// Environment variables are prefixed with DEDUP_ (e.g., DEDUP_THRESHOLD).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "dedup"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "dedup"))

	v.SetEnvPrefix("DEDUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("threshold", DefaultThreshold)
	v.SetDefault("metadata_partial_weight", DefaultMetadataPartialWeight)
	v.SetDefault("default_path", DefaultPath)
	v.SetDefault("output_folder", DefaultOutputFolder)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("signals.names", true)
	v.SetDefault("signals.sizes", true)
	v.SetDefault("signals.metadata", true)
	v.SetDefault("signals.visual", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)
	v.SetDefault("manifest.path", filepath.Join(homeDir, ".config", "dedup", ".manifest"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.components", map[string]string{
		"engine":  "info",
		"signal":  "info",
		"resolve": "info",
		"watcher": "warn",
	})

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in user-supplied paths
	for _, p := range []*string{&cfg.Manifest.Path, &cfg.Cache.Path, &cfg.OutputFolder} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "dedup"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "dedup"), nil
}

// ManifestDir returns the manifest directory path.
func ManifestDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ".manifest"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	manifestDir, err := ManifestDir()
	if err != nil {
		return err
	}

	defaultConfig := fmt.Sprintf(`# Dedup Duplicate Detection Configuration

# Minimum aggregate confidence (0.0 to 1.0) for two files to be
# considered duplicates
threshold: %.2f

# Weight applied to partial metadata matches
metadata_partial_weight: %.2f

# Default path to scan when none is specified
default_path: %s

# Destination folder for relocated files
output_folder: %s

# Worker count for fingerprinting and comparison (0 = one per CPU)
workers: %d

# Report format: table, json, plain
format: %s

# Detection signals
signals:
  names: true
  sizes: true
  metadata: true
  visual: true

# Fingerprint cache
cache:
  enabled: true
  path: %s

# Manifest settings for tracking scan and resolution history
manifest:
  enabled: true
  path: %s
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/dedup/dedup.log)
  path: ""
  # Per-component log levels
  components:
    engine: info
    signal: info
    resolve: info
    watcher: warn
`, DefaultThreshold, DefaultMetadataPartialWeight, DefaultPath, DefaultOutputFolder,
		DefaultWorkers, DefaultFormat, DefaultCachePath(), manifestDir, DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/dedup/ for database files.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "dedup")
}

// StateDir returns $XDG_STATE_HOME/dedup/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "dedup")
}

// CacheDir returns $XDG_CACHE_HOME/dedup/ for the fingerprint cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "dedup")
}

// DefaultCachePath returns the default fingerprint cache path.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "fingerprints")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "dedup.log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
