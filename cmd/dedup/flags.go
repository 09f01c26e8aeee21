package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
	"github.com/jamesainslie/dedup/pkg/dedup/config"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// buildComparisonConfig creates a types.ComparisonConfig from the CLI
// flags and config file.
func buildComparisonConfig() (types.ComparisonConfig, error) {
	cfg := types.DefaultComparisonConfig()

	if t := viper.GetFloat64("threshold"); t > 0 {
		cfg.Threshold = t
	}
	if w := viper.GetFloat64("metadata_partial_weight"); w > 0 {
		cfg.MetadataPartialWeight = w
	}

	cfg.CheckNames = !viper.GetBool("no_names") && signalEnabled("signals.names")
	cfg.CheckSizes = !viper.GetBool("no_sizes") && signalEnabled("signals.sizes")
	cfg.CheckMetadata = !viper.GetBool("no_metadata") && signalEnabled("signals.metadata")
	cfg.CheckVisual = !viper.GetBool("no_visual") && signalEnabled("signals.visual")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// signalEnabled reads a signal toggle, defaulting to enabled when the
// key is absent from the config file.
func signalEnabled(key string) bool {
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}

// resolveScanPaths expands and validates the scan roots from the
// command arguments, falling back to the configured default path.
func resolveScanPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		defaultPath := viper.GetString("default_path")
		if defaultPath == "" {
			defaultPath = config.DefaultPath
		}
		args = []string{defaultPath}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path %q: %w", arg, err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %q: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// openFingerprintCache opens the persistent fingerprint cache if
// enabled. A nil cache with a nil error means caching is disabled or
// unavailable.
func openFingerprintCache() (*cache.Cache, error) {
	if viper.GetBool("no_cache") || !viper.GetBool("cache.enabled") {
		return nil, nil
	}

	cachePath := viper.GetString("cache.path")
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		printVerbose("Cannot create cache directory, caching disabled: %v", err)
		return nil, nil
	}

	c, err := cache.Open(cachePath)
	if err != nil {
		// A locked or corrupt cache degrades to a full recompute
		printVerbose("Cannot open fingerprint cache, caching disabled: %v", err)
		return nil, nil
	}
	return c, nil
}
