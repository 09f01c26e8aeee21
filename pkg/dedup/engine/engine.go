// Package engine implements the duplicate grouping engine. It enumerates
// candidate files under the supplied roots, computes fingerprints on a
// bounded worker pool, scores every unordered pair with the comparator,
// and merges duplicate verdicts into disjoint groups with a
// deterministic original per group.
package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
	"github.com/jamesainslie/dedup/pkg/dedup/compare"
	"github.com/jamesainslie/dedup/pkg/dedup/logging"
	"github.com/jamesainslie/dedup/pkg/dedup/signal"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// ErrNoValidPaths indicates that none of the supplied root paths exist.
// This is the only condition that fails a scan outright; individual
// unreadable files are recorded as diagnostics and skipped.
var ErrNoValidPaths = errors.New("no valid input paths")

// ctxCheckInterval is how many pairwise comparisons run between
// cancellation checks.
const ctxCheckInterval = 256

var logger = logging.Get("engine")

// Engine finds duplicate groups across one or more directory trees.
// An Engine is safe to reuse for sequential scans but not concurrently.
type Engine struct {
	opts  Options
	avail signal.Availability

	// Atomic counters for thread-safe progress reporting.
	filesFound    atomic.Int64
	fingerprinted atomic.Int64
	comparisons   atomic.Int64

	// currentPath is the path most recently processed (for progress).
	currentPath atomic.Value

	// errors collects per-file diagnostics without stopping the scan.
	errors   []types.ScanError
	errorsMu sync.Mutex

	// lastProgress throttles progress callbacks.
	lastProgress atomic.Int64
}

// New creates an Engine with the given options. The signal availability
// check happens here, once, so callers can decide up front whether to
// proceed with reduced coverage.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	avail := signal.Capabilities()
	if opts.Config.CheckMetadata && !avail.Metadata {
		logger.Warn("metadata extraction unavailable, signal disabled")
		opts.Config.CheckMetadata = false
	}
	if opts.Config.CheckVisual && !avail.Visual {
		logger.Warn("perceptual hashing unavailable, signal disabled")
		opts.Config.CheckVisual = false
	}

	e := &Engine{opts: opts, avail: avail}
	e.currentPath.Store("")
	return e, nil
}

// Find scans the given paths and returns the duplicate groups found.
// Paths may be directories (walked recursively) or individual files.
// Files with unrecognized extensions are silently excluded.
//
// On cancellation Find returns the groups computed from the comparisons
// finished so far together with the context error, so callers can show
// a best-effort partial result.
func (e *Engine) Find(ctx context.Context, paths []string) (*types.ScanResult, error) {
	startTime := time.Now()
	e.reset()

	records, err := e.enumerate(ctx, paths)
	if err != nil {
		return nil, err
	}
	logger.Info("enumeration complete", "candidates", len(records))

	fpErr := e.fingerprint(ctx, records)

	edges, cmpErr := e.comparePairs(ctx, records)

	result := &types.ScanResult{
		Groups:       e.buildGroups(records, edges),
		FilesScanned: e.filesFound.Load(),
		Comparisons:  e.comparisons.Load(),
		Elapsed:      time.Since(startTime),
		Errors:       e.errors,
	}

	logger.Info("scan complete",
		"files", result.FilesScanned,
		"groups", len(result.Groups),
		"duplicates", result.DuplicateCount(),
		"elapsed", result.Elapsed)

	if cmpErr != nil {
		return result, cmpErr
	}
	if fpErr != nil {
		return result, fpErr
	}
	return result, ctx.Err()
}

// reset clears per-scan state so the Engine can be reused.
func (e *Engine) reset() {
	e.filesFound.Store(0)
	e.fingerprinted.Store(0)
	e.comparisons.Store(0)
	e.errors = nil
}

// enumerate collects one FileRecord per eligible file under the given
// roots. A root may be a single file. Roots that do not exist are
// recorded as diagnostics; if none exist the scan fails with
// ErrNoValidPaths.
func (e *Engine) enumerate(ctx context.Context, paths []string) ([]*types.FileRecord, error) {
	seen := make(map[string]*types.FileRecord)
	var seenMu sync.Mutex

	addFile := func(path string, info fs.FileInfo) {
		seenMu.Lock()
		defer seenMu.Unlock()
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = &types.FileRecord{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		e.filesFound.Add(1)
	}

	validRoots := 0
	for _, p := range paths {
		root, err := filepath.Abs(p)
		if err != nil {
			e.addError(p, err)
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			e.addError(root, err)
			continue
		}
		validRoots++

		if !info.IsDir() {
			if signal.Recognized(root) {
				addFile(root, info)
			}
			continue
		}

		conf := fastwalk.Config{Follow: false}
		err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				e.addError(path, err)
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() || !signal.Recognized(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				// Vanished between readdir and stat: skip with a
				// diagnostic, the scan continues.
				e.addError(path, err)
				return nil
			}
			e.currentPath.Store(path)
			addFile(path, info)
			e.reportProgress()
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			e.addError(root, err)
		}
	}

	if validRoots == 0 {
		return nil, ErrNoValidPaths
	}

	records := make([]*types.FileRecord, 0, len(seen))
	for _, r := range seen {
		records = append(records, r)
	}
	// Deterministic processing order regardless of walk scheduling.
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// fingerprint fills the fingerprint fields of every record on a bounded
// worker pool. Records are read-only afterwards. Per-file extraction
// failures are recorded as diagnostics and leave the corresponding
// signal unavailable for that file.
func (e *Engine) fingerprint(ctx context.Context, records []*types.FileRecord) error {
	cfg := e.opts.Config

	pending := make(map[string]*cache.Entry)
	var pendingMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, rec := range records {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			rec.NameToken = signal.NameToken(rec.Path)

			entry, fresh := e.extractExpensive(rec, cfg)
			if fresh && e.opts.Cache != nil {
				pendingMu.Lock()
				pending[rec.Path] = entry
				pendingMu.Unlock()
			}

			e.fingerprinted.Add(1)
			e.currentPath.Store(rec.Path)
			e.reportProgress()
			return nil
		})
	}

	err := g.Wait()

	if e.opts.Cache != nil {
		if cacheErr := e.opts.Cache.PutBatch(pending); cacheErr != nil {
			e.addError("fingerprint cache", cacheErr)
		}
	}

	return err
}

// extractExpensive computes (or restores from cache) the metadata and
// visual fingerprints for one record. It returns the cache entry
// representing the record's current state and whether any part of it
// was computed fresh.
func (e *Engine) extractExpensive(rec *types.FileRecord, cfg types.ComparisonConfig) (*cache.Entry, bool) {
	entry := &cache.Entry{Size: rec.Size, Mtime: rec.ModTime.UnixNano()}
	fresh := false

	var cached *cache.Entry
	if e.opts.Cache != nil {
		cached, _ = e.opts.Cache.Lookup(rec.Path, rec.Size, rec.ModTime)
	}

	if cfg.CheckMetadata {
		switch {
		case cached != nil && (cached.HasMeta || cached.NoMeta):
			rec.Metadata = cached.Metadata()
			entry.HasMeta, entry.NoMeta = cached.HasMeta, cached.NoMeta
			entry.Capture, entry.Width, entry.Height = cached.Capture, cached.Width, cached.Height
		default:
			fresh = true
			meta, err := signal.ExtractMetadata(rec.Path)
			if err != nil {
				e.addError(rec.Path, err)
			} else if meta != nil {
				rec.Metadata = meta
				entry.HasMeta = true
				if meta.HasCaptureTime() {
					entry.Capture = meta.CaptureTime.UnixNano()
				}
				entry.Width, entry.Height = meta.Width, meta.Height
			} else {
				entry.NoMeta = true
			}
		}
	}

	if cfg.CheckVisual && signal.CanDecode(rec.Path) {
		switch {
		case cached != nil && (cached.HasVisual || cached.Undecodable):
			rec.Visual = cached.Visual()
			entry.HasVisual, entry.Undecodable = cached.HasVisual, cached.Undecodable
			entry.PHash, entry.DHash = cached.PHash, cached.DHash
		default:
			fresh = true
			hash, err := signal.ExtractVisual(rec.Path)
			switch {
			case errors.Is(err, signal.ErrUndecodable):
				// Visual similarity is unknown for this file; cache
				// the failure so corrupt files are not re-decoded
				// every scan.
				e.addError(rec.Path, err)
				entry.Undecodable = true
			case err != nil:
				e.addError(rec.Path, err)
			default:
				rec.Visual = hash
				entry.HasVisual = true
				entry.PHash, entry.DHash = hash.PHash, hash.DHash
			}
		}
	}

	return entry, fresh
}

// edge is one pairwise duplicate verdict between record indices.
type edge struct {
	a, b       int
	confidence float64
}

// comparePairs evaluates every unordered pair of records and returns
// the duplicate edges. Rows of the pair matrix are distributed across
// workers; the verdict for a pair depends only on the two immutable
// records, so the resulting edge set is deterministic regardless of
// scheduling. Cancellation is checked between comparisons so large
// collections stop promptly.
func (e *Engine) comparePairs(ctx context.Context, records []*types.FileRecord) ([]edge, error) {
	cfg := e.opts.Config

	var edges []edge
	var edgesMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range records {
		g.Go(func() error {
			var local []edge
			for j := i + 1; j < len(records); j++ {
				n := e.comparisons.Add(1)
				if n%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
					e.reportProgress()
				}

				v := compare.Compare(records[i], records[j], cfg)
				if v.Duplicate {
					local = append(local, edge{a: i, b: j, confidence: v.Confidence})
				}
			}
			if len(local) > 0 {
				edgesMu.Lock()
				edges = append(edges, local...)
				edgesMu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	return edges, err
}

// buildGroups merges duplicate edges into connected components and
// emits every component of size >= 2 as a DuplicateGroup.
//
// Original selection is deterministic: earliest modification time,
// ties broken by shortest path, then lexicographic path order. Groups
// are returned ordered by original path.
func (e *Engine) buildGroups(records []*types.FileRecord, edges []edge) []types.DuplicateGroup {
	if len(edges) == 0 {
		return nil
	}

	// The union-find merge mutates shared membership, so it runs
	// serialized here rather than inside the comparison workers.
	uf := newUnionFind(len(records))
	for _, ed := range edges {
		uf.union(ed.a, ed.b)
	}

	// Group similarity is the strongest edge inside the component.
	best := make(map[int]float64)
	for _, ed := range edges {
		root := uf.find(ed.a)
		if ed.confidence > best[root] {
			best[root] = ed.confidence
		}
	}

	var groups []types.DuplicateGroup
	for root, members := range uf.components() {
		if len(members) < 2 {
			continue
		}

		files := make([]*types.FileRecord, len(members))
		for i, idx := range members {
			files[i] = records[idx]
		}
		sort.Slice(files, func(i, j int) bool {
			a, b := files[i], files[j]
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.Before(b.ModTime)
			}
			if len(a.Path) != len(b.Path) {
				return len(a.Path) < len(b.Path)
			}
			return a.Path < b.Path
		})

		groups = append(groups, types.DuplicateGroup{
			Files:      files,
			Similarity: best[root],
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Original().Path < groups[j].Original().Path
	})
	return groups
}

// addError records a per-file diagnostic thread-safely.
func (e *Engine) addError(path string, err error) {
	e.errorsMu.Lock()
	e.errors = append(e.errors, types.ScanError{Path: path, Error: err.Error()})
	e.errorsMu.Unlock()
}

// reportProgress calls the progress callback if configured, throttled
// to every 10ms.
func (e *Engine) reportProgress() {
	if e.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := e.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !e.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	currentPath, _ := e.currentPath.Load().(string)
	e.opts.OnProgress(Progress{
		FilesFound:    e.filesFound.Load(),
		Fingerprinted: e.fingerprinted.Load(),
		Comparisons:   e.comparisons.Load(),
		CurrentPath:   currentPath,
	})
}
