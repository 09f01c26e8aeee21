package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
	"github.com/jamesainslie/dedup/pkg/dedup/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "dedup [paths...]",
		Short: "Find duplicate image files across folders",
		Long: `Dedup scans folders for duplicate images using multiple signals:
file names, sizes, embedded metadata, and perceptual visual hashes.

Files that agree on enough signals are grouped together, with the
earliest file in each group designated the original. Use the resolve
command to act on the groups.

Examples:
  dedup ~/Pictures                  # Scan for duplicates
  dedup -t 0.9 ~/Pictures ~/Backup  # Stricter threshold, two roots
  dedup --no-visual ~/Pictures      # Skip perceptual hashing
  dedup resolve -o sorted ~/Pics    # Move duplicates into sorted/
  dedup history                     # View operation history`,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRunE: bootstrapLogging,
		RunE:              runScan,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dedup/config.yaml)")
	rootCmd.PersistentFlags().Float64P("threshold", "t", 0, "similarity threshold between 0 and 1 (0=use config)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override worker count (0=auto)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (table, plain, json)")
	rootCmd.PersistentFlags().Bool("no-names", false, "disable the file name signal")
	rootCmd.PersistentFlags().Bool("no-sizes", false, "disable the file size signal")
	rootCmd.PersistentFlags().Bool("no-metadata", false, "disable the metadata signal")
	rootCmd.PersistentFlags().Bool("no-visual", false, "disable the visual hash signal")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the fingerprint cache")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("no_names", rootCmd.PersistentFlags().Lookup("no-names"))
	_ = viper.BindPFlag("no_sizes", rootCmd.PersistentFlags().Lookup("no-sizes"))
	_ = viper.BindPFlag("no_metadata", rootCmd.PersistentFlags().Lookup("no-metadata"))
	_ = viper.BindPFlag("no_visual", rootCmd.PersistentFlags().Lookup("no-visual"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "dedup"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "dedup"))
		}
	}

	viper.SetEnvPrefix("DEDUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("threshold", config.DefaultThreshold)
	viper.SetDefault("metadata_partial_weight", config.DefaultMetadataPartialWeight)
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("output_folder", config.DefaultOutputFolder)
	viper.SetDefault("format", config.DefaultFormat)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("manifest.enabled", true)
	viper.SetDefault("manifest.retention_days", config.DefaultRetentionDays)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// bootstrapLogging initializes file logging before any command runs.
func bootstrapLogging(cmd *cobra.Command, args []string) error {
	level := viper.GetString("logging.level")
	if level == "" {
		level = "info"
	}

	consoleLevel := ""
	if getVerbose() {
		level = "debug"
		consoleLevel = "debug"
	}

	cfg := logging.Config{
		Level:        level,
		Path:         viper.GetString("logging.path"),
		ConsoleLevel: consoleLevel,
		Components:   viper.GetStringMapString("logging.components"),
	}

	if err := logging.Init(cfg); err != nil {
		// Logging failure should not block the command
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
