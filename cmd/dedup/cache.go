package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fingerprint cache",
	Long: `Manage the persistent fingerprint cache.

The cache stores extracted metadata and visual hashes keyed by file
path, so repeated scans skip unchanged files. Entries are validated
against file size and modification time on every lookup.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached fingerprints",
	RunE:  runCacheClear,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the cache location",
	RunE:  runCachePath,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <path>",
	Short: "Drop the cached fingerprints for one file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

// runCacheClear drops every cached fingerprint.
func runCacheClear(_ *cobra.Command, _ []string) error {
	c, err := openFingerprintCache()
	if err != nil {
		return err
	}
	if c == nil {
		printInfo("Cache is disabled or unavailable, nothing to clear.")
		return nil
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	printInfo("Fingerprint cache cleared.")
	return nil
}

// runCachePath prints the cache location.
func runCachePath(_ *cobra.Command, _ []string) error {
	cachePath := viper.GetString("cache.path")
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	fmt.Println(cachePath)
	return nil
}

// runCacheInvalidate drops the entry for a single file.
func runCacheInvalidate(_ *cobra.Command, args []string) error {
	c, err := openFingerprintCache()
	if err != nil {
		return err
	}
	if c == nil {
		printInfo("Cache is disabled or unavailable.")
		return nil
	}
	defer c.Close()

	if err := c.Invalidate(args[0]); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", args[0], err)
	}

	printInfo("Invalidated %s", args[0])
	return nil
}
