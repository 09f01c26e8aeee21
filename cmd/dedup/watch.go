package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/dedup/pkg/dedup/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch folders and keep the fingerprint cache fresh",
	Long: `Watch the given folders for file changes and invalidate cached
fingerprints as files are modified, moved, or removed. Run this in the
background so subsequent scans never trust stale cache entries.

Example:
  dedup watch ~/Pictures &`,
	Args: cobra.ArbitraryArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatch blocks watching the given roots until interrupted.
func runWatch(_ *cobra.Command, args []string) error {
	paths, err := resolveScanPaths(args)
	if err != nil {
		return err
	}

	c, err := openFingerprintCache()
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("fingerprint cache is disabled: nothing to watch")
	}
	defer c.Close()

	w, err := watcher.New(c)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	for _, path := range paths {
		if err := w.Watch(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		printInfo("Watching %s", path)
	}

	ctx, cancel, _ := interruptibleContext()
	defer cancel()

	w.Run(ctx)
	printInfo("Watch stopped.")
	return nil
}
