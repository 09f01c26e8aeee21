package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dedup/pkg/dedup/config"
	"github.com/jamesainslie/dedup/pkg/dedup/manifest"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of scan and resolution operations.

The manifest stores a record of every scan and resolution performed by
dedup, including which groups were found and which files were moved,
linked, or removed.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific operation",
	Long:  `Display detailed information about a specific operation by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists recent operations.
func runHistory(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'dedup [path]' to scan for duplicates.")
		return nil
	}

	fmt.Printf("\n%-40s  %-8s  %-8s  %-12s\n", "ID", "TYPE", "GROUPS", "SIZE")
	fmt.Println(strings.Repeat("-", 80))

	for _, entry := range entries {
		fmt.Printf("%-40s  %-8s  %-8d  %-12s\n",
			truncateString(entry.ID, 40),
			entry.Operation,
			entryGroupCount(&entry),
			types.FormatSize(entryBytes(&entry)),
		)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'dedup history show <id>' for details on a specific entry.")

	return nil
}

// entryGroupCount returns the number of groups involved in an entry.
func entryGroupCount(entry *manifest.Entry) int {
	if entry.Operation == manifest.OpResolve && entry.Outcome != nil {
		return entry.Outcome.GroupsProcessed
	}
	return len(entry.Groups)
}

// entryBytes returns the byte total reported by an entry.
func entryBytes(entry *manifest.Entry) int64 {
	if entry.Operation == manifest.OpResolve && entry.Outcome != nil {
		return entry.Outcome.BytesReclaimed
	}
	var total int64
	for _, g := range entry.Groups {
		total += g.Savings
	}
	return total
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(_ *cobra.Command, args []string) error {
	id := args[0]

	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entry, err := m.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)

	switch entry.Operation {
	case manifest.OpScan:
		fmt.Printf("Scanned:    %d files\n", entry.FilesScanned)
		fmt.Printf("Groups:     %d\n", len(entry.Groups))
		fmt.Printf("Savings:    %s\n", types.FormatSize(entryBytes(entry)))
		showScanGroups(entry)

	case manifest.OpResolve:
		fmt.Printf("Action:     %s\n", entry.Action)
		if entry.Outcome != nil {
			fmt.Printf("Groups:     %d\n", entry.Outcome.GroupsProcessed)
			fmt.Printf("Files:      %d moved, %d failed\n",
				entry.Outcome.FilesRelocated, entry.Outcome.FilesFailed)
			fmt.Printf("Reclaimed:  %s\n", types.FormatSize(entry.Outcome.BytesReclaimed))
			showResolveResults(entry)
		}
	}

	return nil
}

// showScanGroups lists the groups found by a scan entry, capped at 50.
func showScanGroups(entry *manifest.Entry) {
	if len(entry.Groups) == 0 {
		return
	}

	fmt.Println("\nGroups:")
	fmt.Println(strings.Repeat("-", 60))

	limit := min(len(entry.Groups), 50)
	for i := 0; i < limit; i++ {
		g := entry.Groups[i]
		fmt.Printf("%3d. %s (%.0f%%, %s)\n", i+1, g.Original, g.Similarity*100,
			types.FormatSize(g.Savings))
		for _, d := range g.Duplicates {
			fmt.Printf("     = %s\n", d)
		}
	}

	if len(entry.Groups) > limit {
		fmt.Printf("\n... and %d more groups\n", len(entry.Groups)-limit)
	}
}

// showResolveResults lists the file operations of a resolution entry,
// capped at 50.
func showResolveResults(entry *manifest.Entry) {
	results := entry.Outcome.Results
	if len(results) == 0 {
		return
	}

	fmt.Println("\nFiles:")
	fmt.Println(strings.Repeat("-", 60))

	limit := min(len(results), 50)
	for i := 0; i < limit; i++ {
		res := results[i]
		status := "ok"
		if !res.OK {
			status = "FAILED: " + res.Error
		}
		if res.Destination != "" && res.Destination != res.Source {
			fmt.Printf("%s -> %s (%s)\n", res.Source, res.Destination, status)
		} else {
			fmt.Printf("%s (%s)\n", res.Source, status)
		}
	}

	if len(results) > limit {
		fmt.Printf("\n... and %d more files\n", len(results)-limit)
	}
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	retentionDays := viper.GetInt("manifest.retention_days")
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := m.Prune(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
