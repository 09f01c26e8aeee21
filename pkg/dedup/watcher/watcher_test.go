package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
)

func openTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	c, err := cache.Open(filepath.Join(t.TempDir(), "fingerprints"))
	if err != nil {
		t.Fatalf("cache.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// cacheFile writes a file and stores a matching fingerprint entry, so a
// later Lookup hit proves the entry survived and a miss proves it was
// invalidated.
func cacheFile(t *testing.T, c *cache.Cache, path string) (int64, time.Time) {
	t.Helper()

	if err := os.WriteFile(path, []byte("image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	entry := &cache.Entry{Size: info.Size(), Mtime: info.ModTime().UnixNano()}
	if err := c.Put(path, entry); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(path, info.Size(), info.ModTime()); !ok {
		t.Fatal("entry not stored")
	}
	return info.Size(), info.ModTime()
}

// waitForMiss polls the cache until the entry disappears or the deadline
// passes.
func waitForMiss(t *testing.T, c *cache.Cache, path string, size int64, mtime time.Time) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Lookup(path, size, mtime); !ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("cache entry was not invalidated before the deadline")
}

func startWatcher(t *testing.T, c *cache.Cache, roots ...string) *Watcher {
	t.Helper()

	w, err := New(c)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, root := range roots {
		if err := w.Watch(root); err != nil {
			t.Fatalf("Watch(%s) failed: %v", root, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		<-done
	})
	return w
}

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	c := openTestCache(t)

	path := filepath.Join(dir, "photo.jpg")
	size, mtime := cacheFile(t, c, path)

	startWatcher(t, c, dir)

	if err := os.WriteFile(path, []byte("modified image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForMiss(t, c, path, size, mtime)
}

func TestWatcherInvalidatesOnRemove(t *testing.T) {
	dir := t.TempDir()
	c := openTestCache(t)

	path := filepath.Join(dir, "photo.png")
	size, mtime := cacheFile(t, c, path)

	startWatcher(t, c, dir)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	waitForMiss(t, c, path, size, mtime)
}

func TestWatcherExtendsToNewDirectories(t *testing.T) {
	dir := t.TempDir()
	c := openTestCache(t)

	startWatcher(t, c, dir)

	sub := filepath.Join(dir, "imported")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the event loop time to attach the new watch.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "photo.jpg")
	size, mtime := cacheFile(t, c, path)

	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForMiss(t, c, path, size, mtime)
}

func TestWatcherIgnoresUnrecognizedFiles(t *testing.T) {
	dir := t.TempDir()
	c := openTestCache(t)

	// A cached entry keyed like a document, never produced by a real
	// scan, stands in to prove no invalidation happens.
	path := filepath.Join(dir, "notes.txt")
	size, mtime := cacheFile(t, c, path)

	startWatcher(t, c, dir)

	if err := os.WriteFile(path, []byte("edited notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if _, ok := c.Lookup(path, size, mtime); !ok {
		t.Error("entry for unrecognized file type should not be invalidated")
	}
}

func TestWatchNonDirectory(t *testing.T) {
	dir := t.TempDir()
	c := openTestCache(t)

	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Watching a file is a no-op, not an error.
	if err := w.Watch(path); err != nil {
		t.Errorf("Watch(file) error = %v", err)
	}
}

func TestWatchMissingRoot(t *testing.T) {
	c := openTestCache(t)

	w, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Watch on a missing root should fail")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := openTestCache(t)

	w, err := New(c)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
