package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
	"github.com/jamesainslie/dedup/pkg/dedup/resolve"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [paths...]",
	Short: "Scan for duplicates and act on them",
	Long: `Scan the given paths for duplicates, then apply a resolution action
to each group. The original file in each group is never removed.

Actions:
  move_organize  relocate originals to <output>/original and duplicates
                 to <output>/duplicated (default)
  delete         remove duplicates, keeping originals in place
  link           replace duplicates with hard links to their original

Examples:
  dedup resolve ~/Pictures                      # Organize into ./output
  dedup resolve -o sorted ~/Pictures            # Custom output folder
  dedup resolve -a delete --trash ~/Pictures    # Trash duplicates
  dedup resolve -a link ~/Pictures              # Hard-link duplicates
  dedup resolve --dry-run ~/Pictures            # Preview only`,
	Args: cobra.ArbitraryArgs,
	RunE: runResolve,
}

var (
	resolveAction       string
	resolveOutput       string
	resolveKeepOriginal bool
	resolveTrash        bool
	resolveDryRun       bool
	resolveYes          bool
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveAction, "action", "a", string(types.ActionRelocate),
		"resolution action (move_organize, delete, link)")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "",
		"output folder for move_organize (default from config)")
	resolveCmd.Flags().BoolVar(&resolveKeepOriginal, "keep-original-in-place", false,
		"leave originals at their source path when relocating")
	resolveCmd.Flags().BoolVar(&resolveTrash, "trash", false,
		"move deleted duplicates to the system trash")
	resolveCmd.Flags().BoolVarP(&resolveDryRun, "dry-run", "d", false,
		"report planned operations without changing anything")
	resolveCmd.Flags().BoolVarP(&resolveYes, "yes", "y", false,
		"skip the confirmation required for delete")

	rootCmd.AddCommand(resolveCmd)
}

// runResolve scans and then applies the resolution action.
func runResolve(_ *cobra.Command, args []string) error {
	action, err := types.ParseAction(resolveAction)
	if err != nil {
		return fmt.Errorf("invalid action %q: valid actions are %s, %s, %s",
			resolveAction, types.ActionRelocate, types.ActionDelete, types.ActionLink)
	}

	if action == types.ActionDelete && !resolveDryRun && !resolveTrash && !resolveYes {
		return errors.New("delete permanently removes files: pass --yes to confirm, or use --trash or --dry-run")
	}

	paths, err := resolveScanPaths(args)
	if err != nil {
		return err
	}

	cmpCfg, err := buildComparisonConfig()
	if err != nil {
		return err
	}

	outputFolder := resolveOutput
	if outputFolder == "" {
		outputFolder = viper.GetString("output_folder")
	}
	if outputFolder == "" {
		outputFolder = config.DefaultOutputFolder
	}

	executor, err := resolve.New(resolve.Options{
		Action:              action,
		OutputFolder:        outputFolder,
		KeepOriginalInPlace: resolveKeepOriginal,
		UseTrash:            resolveTrash,
		DryRun:              resolveDryRun,
		OnProgress: func(done, total int, path string) {
			printVerbose("[%d/%d] %s", done, total, path)
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel, _ := interruptibleContext()
	defer cancel()

	result, err := performScan(ctx, paths, cmpCfg)
	if err != nil && result == nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(result.Groups) == 0 {
		printInfo("No duplicates found (%d files scanned)", result.FilesScanned)
		return nil
	}

	printInfo("Found %d duplicate group(s), %d duplicate file(s), %s reclaimable",
		len(result.Groups), result.DuplicateCount(), types.FormatSize(result.PotentialSavings()))
	if resolveDryRun {
		printInfo("Dry run: no files will be changed")
	}

	outcome, err := executor.Resolve(ctx, result.Groups)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("resolution failed: %w", err)
	}

	printInfo("%s", outcome.Summary())
	for _, res := range outcome.Results {
		if !res.OK {
			printError("%s: %s", res.Source, res.Error)
		}
	}

	logResolutionToManifest(action, outcome)

	if outcome.Incomplete {
		printInfo("Resolution interrupted: completed operations were kept")
	}
	return nil
}

// logResolutionToManifest records the resolution in the operation
// history. Dry runs are not recorded.
func logResolutionToManifest(action types.Action, outcome *types.ResolutionOutcome) {
	if resolveDryRun || !viper.GetBool("manifest.enabled") {
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
	if _, err := m.LogResolution(action, outcome); err != nil {
		printVerbose("Failed to record resolution in manifest: %v", err)
	}
}
