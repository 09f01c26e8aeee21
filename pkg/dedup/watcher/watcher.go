// Package watcher keeps the fingerprint cache fresh between scans. It
// watches directory trees with fsnotify and drops the cached
// fingerprints of files that change, move, or disappear, so the next
// scan recomputes them instead of trusting a stale entry.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
	"github.com/jamesainslie/dedup/pkg/dedup/logging"
	"github.com/jamesainslie/dedup/pkg/dedup/signal"
)

var logger = logging.Get("watcher")

// Watcher invalidates fingerprint cache entries for changed files.
type Watcher struct {
	cache   *cache.Cache
	watcher *fsnotify.Watcher
	paths   map[string]bool
	mu      sync.Mutex
	closed  bool
}

// New creates a Watcher that invalidates entries in the given cache.
func New(c *cache.Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cache:   c,
		watcher: fsw,
		paths:   make(map[string]bool),
	}, nil
}

// Watch starts watching a directory tree recursively. Symlinks are not
// followed to avoid loops.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil // Only watch directories
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled
// or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watch error", "error", err)
		}
	}
}

// handleEvent invalidates the cache entry touched by one filesystem
// event. Creation of a directory extends the watch to it, covering
// trees moved in wholesale.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = w.addWatch(event.Name)
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !signal.Recognized(event.Name) {
		return
	}

	logger.Debug("invalidating fingerprints", "path", event.Name, "op", event.Op.String())
	if err := w.cache.Invalidate(event.Name); err != nil {
		logger.Warn("cache invalidation failed", "path", event.Name, "error", err)
	}
}

// Close stops watching and releases the fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
