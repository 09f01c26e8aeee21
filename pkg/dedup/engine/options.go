package engine

import (
	"runtime"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// maxWorkers caps the fingerprint worker pool. Each worker may hold a
// fully decoded pixel buffer, so the pool is bounded to limit memory
// and open file descriptors.
const maxWorkers = 32

// Options configures an Engine.
type Options struct {
	// Config selects the comparison signals and threshold.
	Config types.ComparisonConfig

	// Workers is the fingerprint extraction worker count.
	// Zero selects a default based on the CPU count.
	Workers int

	// Cache is an optional persistent fingerprint cache. Nil disables
	// caching; every fingerprint is recomputed.
	Cache *cache.Cache

	// OnProgress, when set, receives throttled progress snapshots.
	OnProgress func(Progress)
}

// Progress is a snapshot of scan progress for reporting.
type Progress struct {
	// FilesFound is the number of candidate files enumerated so far.
	FilesFound int64 `json:"files_found"`

	// Fingerprinted is the number of files whose extraction finished.
	Fingerprinted int64 `json:"fingerprinted"`

	// Comparisons is the number of pairwise comparisons performed.
	Comparisons int64 `json:"comparisons"`

	// CurrentPath is the path most recently processed.
	CurrentPath string `json:"current_path"`
}

// Validate checks option values and applies defaults.
func (o *Options) Validate() error {
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Workers > maxWorkers {
		o.Workers = maxWorkers
	}
	return nil
}
