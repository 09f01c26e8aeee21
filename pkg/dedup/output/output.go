// Package output provides formatters for displaying duplicate scan
// results in various output formats (table, plain, json).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("table")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// GroupView is one duplicate group prepared for display.
type GroupView struct {
	// Original is the file retained as the canonical copy.
	Original FileView `json:"original" yaml:"original"`

	// Duplicates are the remaining members of the group.
	Duplicates []FileView `json:"duplicates" yaml:"duplicates"`

	// Similarity is the group's aggregate confidence, 0.0 to 1.0.
	Similarity float64 `json:"similarity" yaml:"similarity"`

	// Savings is the number of bytes reclaimable by removing the
	// duplicates.
	Savings int64 `json:"savings" yaml:"savings"`

	// SavingsHuman is the human-readable form of Savings.
	SavingsHuman string `json:"savings_human" yaml:"savings_human"`
}

// FileView is one file prepared for display.
type FileView struct {
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
	SizeHuman string    `json:"size_human" yaml:"size_human"`
	ModTime   time.Time `json:"mod_time" yaml:"mod_time"`
}

// ScanStats contains statistics about a scan operation.
type ScanStats struct {
	FilesScanned int64         `json:"files_scanned" yaml:"files_scanned"`
	Comparisons  int64         `json:"comparisons" yaml:"comparisons"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Errors       int           `json:"errors" yaml:"errors"`
}

// Report contains the complete output data for formatting.
type Report struct {
	// Groups contains all duplicate groups, sorted by original path.
	Groups []GroupView `json:"groups" yaml:"groups"`

	// Stats contains scan statistics.
	Stats ScanStats `json:"stats" yaml:"stats"`

	// Sources are the root paths that were scanned.
	Sources []string `json:"sources" yaml:"sources"`

	// Warnings contains per-file diagnostics generated during the scan.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Interrupted indicates the scan was cancelled before completing.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// DuplicateCount returns the total number of duplicate files across all
// groups.
func (r *Report) DuplicateCount() int {
	var n int
	for _, g := range r.Groups {
		n += len(g.Duplicates)
	}
	return n
}

// TotalSavings returns the total reclaimable bytes across all groups.
func (r *Report) TotalSavings() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Savings
	}
	return total
}

// BuildReport converts a scan result into a display report.
func BuildReport(result *types.ScanResult, sources []string, interrupted bool) *Report {
	report := &Report{
		Groups:      make([]GroupView, 0, len(result.Groups)),
		Sources:     sources,
		Interrupted: interrupted,
		Stats: ScanStats{
			FilesScanned: result.FilesScanned,
			Comparisons:  result.Comparisons,
			Duration:     result.Elapsed,
			Errors:       len(result.Errors),
		},
	}

	for _, g := range result.Groups {
		view := GroupView{
			Original:     buildFileView(g.Original()),
			Similarity:   g.Similarity,
			Savings:      g.PotentialSavings(),
			SavingsHuman: types.FormatSize(g.PotentialSavings()),
		}
		for _, d := range g.Duplicates() {
			view.Duplicates = append(view.Duplicates, buildFileView(d))
		}
		report.Groups = append(report.Groups, view)
	}

	for _, e := range result.Errors {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
	}

	return report
}

func buildFileView(f *types.FileRecord) FileView {
	return FileView{
		Path:      f.Path,
		Size:      f.Size,
		SizeHuman: types.FormatSize(f.Size),
		ModTime:   f.ModTime,
	}
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
