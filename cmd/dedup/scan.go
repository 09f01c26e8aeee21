package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
	"github.com/jamesainslie/dedup/pkg/dedup/engine"
	"github.com/jamesainslie/dedup/pkg/dedup/manifest"
	"github.com/jamesainslie/dedup/pkg/dedup/output"
	"github.com/jamesainslie/dedup/pkg/dedup/tuner"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// runScan is the main scan command handler.
func runScan(_ *cobra.Command, args []string) error {
	paths, err := resolveScanPaths(args)
	if err != nil {
		return err
	}

	cmpCfg, err := buildComparisonConfig()
	if err != nil {
		return err
	}

	formatter, err := output.Get(outputFormat())
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v",
			outputFormat(), output.Available())
	}

	ctx, cancel, interrupted := interruptibleContext()
	defer cancel()

	result, err := performScan(ctx, paths, cmpCfg)
	if err != nil && result == nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	report := output.BuildReport(result, paths, *interrupted)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	logScanToManifest(result)
	return nil
}

// performScan runs duplicate detection over the given roots.
func performScan(ctx context.Context, paths []string, cmpCfg types.ComparisonConfig) (*types.ScanResult, error) {
	workers := workerCount()

	printVerbose("Scanning %d root(s) with %d workers, threshold %.2f",
		len(paths), workers, cmpCfg.Threshold)

	fpCache, err := openFingerprintCache()
	if err != nil {
		return nil, err
	}
	if fpCache != nil {
		defer fpCache.Close()
	}

	opts := engine.Options{
		Config:  cmpCfg,
		Workers: workers,
		Cache:   fpCache,
	}
	if getVerbose() && !getQuiet() {
		opts.OnProgress = func(p engine.Progress) {
			fmt.Fprintf(os.Stderr, "\rfound %d  fingerprinted %d  compared %d",
				p.FilesFound, p.Fingerprinted, p.Comparisons)
		}
	}

	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}

	result, err := eng.Find(ctx, paths)
	if opts.OnProgress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil && result != nil && errors.Is(err, context.Canceled) {
		// Partial result from a cancelled scan is still reportable
		return result, nil
	}
	return result, err
}

// workerCount determines the worker pool size from flags and detected
// system resources.
func workerCount() int {
	override := viper.GetInt("workers")

	resources, err := tuner.Detect()
	if err != nil {
		printVerbose("Failed to detect system resources, using defaults: %v", err)
		if override > 0 {
			return override
		}
		return 0 // Engine falls back to NumCPU
	}

	printVerbose("System: %d CPUs, %s RAM, %s available",
		resources.CPUCores,
		types.FormatSize(resources.TotalRAM),
		types.FormatSize(resources.AvailableRAM))

	cfg := tuner.CalculateWithOverrides(resources, override)
	return cfg.FingerprintWorkers
}

// outputFormat returns the selected report format.
func outputFormat() string {
	if f := viper.GetString("format"); f != "" {
		return f
	}
	return config.DefaultFormat
}

// interruptibleContext returns a context cancelled by SIGINT/SIGTERM,
// along with a flag recording whether an interrupt arrived.
func interruptibleContext() (context.Context, context.CancelFunc, *bool) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupted := new(bool)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		*interrupted = true
		cancel()
	}()

	return ctx, cancel, interrupted
}

// logScanToManifest records the scan in the operation history.
func logScanToManifest(result *types.ScanResult) {
	if !viper.GetBool("manifest.enabled") {
		return
	}

	m, err := getManifest()
	if err != nil {
		printVerbose("Manifest unavailable: %v", err)
		return
	}
	if err := m.EnsureDir(); err != nil {
		printVerbose("Cannot create manifest directory: %v", err)
		return
	}
	if _, err := m.LogScan(result); err != nil {
		printVerbose("Failed to record scan in manifest: %v", err)
	}
}

// getManifest returns a manifest instance with the configured directory.
func getManifest() (*manifest.Manifest, error) {
	if path := viper.GetString("manifest.path"); path != "" {
		expanded, err := config.ExpandPath(path)
		if err == nil {
			return manifest.New(expanded)
		}
	}

	manifestDir, err := config.ManifestDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest directory: %w", err)
	}
	return manifest.New(manifestDir)
}
