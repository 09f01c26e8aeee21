package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage dedup configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/dedup/config.yaml (if set)
  2. ~/.config/dedup/config.yaml

Environment variables can override config file settings using the DEDUP_ prefix:
  DEDUP_THRESHOLD=0.9
  DEDUP_WORKERS=8
  DEDUP_SIGNALS_VISUAL=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{
			Threshold:             config.DefaultThreshold,
			MetadataPartialWeight: config.DefaultMetadataPartialWeight,
			DefaultPath:           config.DefaultPath,
			OutputFolder:          config.DefaultOutputFolder,
			Format:                config.DefaultFormat,
		}
		cfg.Signals.Names = true
		cfg.Signals.Sizes = true
		cfg.Signals.Metadata = true
		cfg.Signals.Visual = true
		cfg.Cache.Enabled = true
		cfg.Manifest.Enabled = true
		cfg.Manifest.RetentionDays = config.DefaultRetentionDays
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("threshold:                %.2f\n", cfg.Threshold)
	fmt.Printf("metadata_partial_weight:  %.2f\n", cfg.MetadataPartialWeight)
	fmt.Printf("default_path:             %s\n", cfg.DefaultPath)
	fmt.Printf("output_folder:            %s\n", cfg.OutputFolder)
	fmt.Printf("workers:                  %d\n", cfg.Workers)
	fmt.Printf("format:                   %s\n", cfg.Format)
	fmt.Printf("signals.names:            %t\n", cfg.Signals.Names)
	fmt.Printf("signals.sizes:            %t\n", cfg.Signals.Sizes)
	fmt.Printf("signals.metadata:         %t\n", cfg.Signals.Metadata)
	fmt.Printf("signals.visual:           %t\n", cfg.Signals.Visual)
	fmt.Printf("cache.enabled:            %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path:               %s\n", cfg.Cache.Path)
	fmt.Printf("manifest.enabled:         %t\n", cfg.Manifest.Enabled)
	fmt.Printf("manifest.path:            %s\n", cfg.Manifest.Path)
	fmt.Printf("manifest.retention:       %d days\n", cfg.Manifest.RetentionDays)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"DEDUP_THRESHOLD",
		"DEDUP_METADATA_PARTIAL_WEIGHT",
		"DEDUP_DEFAULT_PATH",
		"DEDUP_OUTPUT_FOLDER",
		"DEDUP_WORKERS",
		"DEDUP_FORMAT",
		"DEDUP_SIGNALS_NAMES",
		"DEDUP_SIGNALS_SIZES",
		"DEDUP_SIGNALS_METADATA",
		"DEDUP_SIGNALS_VISUAL",
		"DEDUP_CACHE_ENABLED",
		"DEDUP_CACHE_PATH",
		"DEDUP_MANIFEST_ENABLED",
		"DEDUP_MANIFEST_PATH",
		"DEDUP_MANIFEST_RETENTION_DAYS",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'dedup config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
