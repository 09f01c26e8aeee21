package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "fingerprints"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEntryEncodeDecode(t *testing.T) {
	t.Parallel()

	original := &Entry{
		Size:      1234,
		Mtime:     time.Now().UnixNano(),
		HasVisual: true,
		PHash:     0xDEADBEEF,
		DHash:     0xCAFEBABE,
		HasMeta:   true,
		Capture:   time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC).UnixNano(),
		Width:     4032,
		Height:    3024,
	}

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded Entry
	if err := decoded.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded != *original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, *original)
	}
}

func TestEntryAccessors(t *testing.T) {
	t.Parallel()

	t.Run("visual present", func(t *testing.T) {
		t.Parallel()
		e := &Entry{HasVisual: true, PHash: 1, DHash: 2}
		v := e.Visual()
		if v == nil || v.PHash != 1 || v.DHash != 2 {
			t.Errorf("Visual() = %+v", v)
		}
	})

	t.Run("visual absent", func(t *testing.T) {
		t.Parallel()
		e := &Entry{Undecodable: true}
		if e.Visual() != nil {
			t.Error("Visual() should be nil for undecodable entry")
		}
	})

	t.Run("metadata present without capture time", func(t *testing.T) {
		t.Parallel()
		e := &Entry{HasMeta: true, Width: 100, Height: 200}
		m := e.Metadata()
		if m == nil || m.Width != 100 || m.Height != 200 {
			t.Fatalf("Metadata() = %+v", m)
		}
		if m.HasCaptureTime() {
			t.Error("capture time should be absent")
		}
	})

	t.Run("metadata absent", func(t *testing.T) {
		t.Parallel()
		e := &Entry{NoMeta: true}
		if e.Metadata() != nil {
			t.Error("Metadata() should be nil when the file carries none")
		}
	})
}

func TestCacheLookupRoundTrip(t *testing.T) {
	t.Parallel()
	c := openTestCache(t)

	mtime := time.Now()
	entry := &Entry{
		Size:      100,
		Mtime:     mtime.UnixNano(),
		HasVisual: true,
		PHash:     42,
	}

	if err := c.Put("/pics/a.jpg", entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Lookup("/pics/a.jpg", 100, mtime)
	if !ok {
		t.Fatal("Lookup miss for freshly stored entry")
	}
	if got.PHash != 42 {
		t.Errorf("PHash = %d, want 42", got.PHash)
	}
}

func TestCacheLookupStale(t *testing.T) {
	t.Parallel()
	c := openTestCache(t)

	mtime := time.Now()
	entry := &Entry{Size: 100, Mtime: mtime.UnixNano()}
	if err := c.Put("/pics/a.jpg", entry); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Lookup("/pics/a.jpg", 200, mtime); ok {
		t.Error("Lookup should miss when size changed")
	}
	if _, ok := c.Lookup("/pics/a.jpg", 100, mtime.Add(time.Second)); ok {
		t.Error("Lookup should miss when mtime changed")
	}
	if _, ok := c.Lookup("/pics/other.jpg", 100, mtime); ok {
		t.Error("Lookup should miss for unknown path")
	}
}

func TestCachePutBatch(t *testing.T) {
	t.Parallel()
	c := openTestCache(t)

	mtime := time.Now()
	entries := map[string]*Entry{
		"/pics/a.jpg": {Size: 1, Mtime: mtime.UnixNano()},
		"/pics/b.jpg": {Size: 2, Mtime: mtime.UnixNano()},
		"/pics/c.jpg": {Size: 3, Mtime: mtime.UnixNano()},
	}

	if err := c.PutBatch(entries); err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}

	for path, want := range entries {
		got, ok := c.Lookup(path, want.Size, mtime)
		if !ok {
			t.Errorf("Lookup miss for %s", path)
			continue
		}
		if got.Size != want.Size {
			t.Errorf("Size = %d, want %d", got.Size, want.Size)
		}
	}

	// Empty batch is a no-op.
	if err := c.PutBatch(nil); err != nil {
		t.Errorf("PutBatch(nil) error = %v", err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()
	c := openTestCache(t)

	mtime := time.Now()
	if err := c.Put("/pics/a.jpg", &Entry{Size: 1, Mtime: mtime.UnixNano()}); err != nil {
		t.Fatal(err)
	}

	if err := c.Invalidate("/pics/a.jpg"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, ok := c.Lookup("/pics/a.jpg", 1, mtime); ok {
		t.Error("Lookup hit after invalidation")
	}

	// Invalidating an absent entry is not an error.
	if err := c.Invalidate("/pics/never-seen.jpg"); err != nil {
		t.Errorf("Invalidate(absent) error = %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()
	c := openTestCache(t)

	mtime := time.Now()
	for _, path := range []string{"/a.jpg", "/b.jpg"} {
		if err := c.Put(path, &Entry{Size: 1, Mtime: mtime.UnixNano()}); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, path := range []string{"/a.jpg", "/b.jpg"} {
		if _, ok := c.Lookup(path, 1, mtime); ok {
			t.Errorf("Lookup hit for %s after Clear", path)
		}
	}
}
