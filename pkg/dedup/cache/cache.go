// Package cache provides a persistent fingerprint cache for the dedup
// engine. Perceptual hashes and embedded metadata are expensive to
// compute; because fingerprints are deterministic for unchanged file
// bytes, entries can be reused across scans and are invalidated when a
// file's size or modification time changes.
package cache

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// Entry is one cached fingerprint record. The Size and Mtime fields
// identify the file state the fingerprints were computed from.
type Entry struct {
	Size  int64
	Mtime int64 // UnixNano

	// HasVisual marks a computed perceptual hash. Undecodable marks a
	// file whose decode failed; caching the failure avoids re-decoding
	// corrupt files every scan.
	HasVisual   bool
	Undecodable bool
	PHash       uint64
	DHash       uint64

	// HasMeta marks extracted metadata; NoMeta marks a file confirmed
	// to carry none.
	HasMeta bool
	NoMeta  bool
	Capture int64 // UnixNano, 0 when absent
	Width   int
	Height  int
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Visual returns the cached visual hash, or nil when none was computed.
func (e *Entry) Visual() *types.VisualHash {
	if !e.HasVisual {
		return nil
	}
	return &types.VisualHash{PHash: e.PHash, DHash: e.DHash}
}

// Metadata returns the cached metadata signature, or nil when the file
// carries none.
func (e *Entry) Metadata() *types.MetadataSignature {
	if !e.HasMeta {
		return nil
	}
	sig := &types.MetadataSignature{Width: e.Width, Height: e.Height}
	if e.Capture != 0 {
		sig.CaptureTime = time.Unix(0, e.Capture)
	}
	return sig
}

// Cache provides high-level fingerprint caching operations.
type Cache struct {
	store *Store
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached entry for a file if it is still valid for
// the given size and modification time. A stale entry is treated as a
// miss; it is overwritten on the next Put.
func (c *Cache) Lookup(path string, size int64, modTime time.Time) (*Entry, bool) {
	entry, err := c.store.Get(path)
	if err != nil {
		return nil, false
	}
	if entry.Size != size || entry.Mtime != modTime.UnixNano() {
		return nil, false
	}
	return entry, true
}

// Put stores fingerprints for a file state.
func (c *Cache) Put(path string, entry *Entry) error {
	return c.store.Put(path, entry)
}

// PutBatch stores fingerprints for many files in one transaction.
func (c *Cache) PutBatch(entries map[string]*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return c.store.PutBatch(entries)
}

// Invalidate drops the cached entry for a path. Used by the watcher
// when a file changes or disappears.
func (c *Cache) Invalidate(path string) error {
	return c.store.Delete(path)
}

// Clear removes all cached fingerprints.
func (c *Cache) Clear() error {
	return c.store.DeleteAll()
}
