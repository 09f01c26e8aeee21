package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/dedup/pkg/dedup/cache"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// writePNG writes a deterministic gradient image of the given dimensions.
// The vertical flag flips the gradient axis to produce distinct content.
func writePNG(t *testing.T, path string, size int, vertical bool) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(x * 256 / size)
			if vertical {
				v = uint8(y * 256 / size)
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	eng, err := New(Options{Config: types.DefaultComparisonConfig(), Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

// duplicateDir builds a directory with one duplicate pair (test1.png and
// test1_copy.png), one distinct image, and one non-image file.
func duplicateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "test1.png"), 64, false)
	writePNG(t, filepath.Join(dir, "test1_copy.png"), 64, false)
	writePNG(t, filepath.Join(dir, "unique.png"), 48, true)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Make the original selection unambiguous.
	now := time.Now()
	if err := os.Chtimes(filepath.Join(dir, "test1.png"), now, now.Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(dir, "test1_copy.png"), now, now.Add(-1*time.Hour)); err != nil {
		t.Fatal(err)
	}

	return dir
}

func TestEngineFindsDuplicatePair(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if result.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d, want 3 (non-image excluded)", result.FilesScanned)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(result.Groups))
	}

	group := result.Groups[0]
	if got := filepath.Base(group.Original().Path); got != "test1.png" {
		t.Errorf("Original = %s, want test1.png (earliest mod time)", got)
	}
	if len(group.Duplicates()) != 1 {
		t.Fatalf("len(Duplicates) = %d, want 1", len(group.Duplicates()))
	}
	if got := filepath.Base(group.Duplicates()[0].Path); got != "test1_copy.png" {
		t.Errorf("Duplicate = %s, want test1_copy.png", got)
	}
	if group.Similarity < 0.85 {
		t.Errorf("Similarity = %v, want >= 0.85", group.Similarity)
	}
}

func TestEngineDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	eng := newTestEngine(t)

	first, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	second, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Groups) != len(second.Groups) {
		t.Fatalf("group counts differ: %d vs %d", len(first.Groups), len(second.Groups))
	}
	for i := range first.Groups {
		a, b := first.Groups[i], second.Groups[i]
		if len(a.Files) != len(b.Files) {
			t.Fatalf("group %d sizes differ", i)
		}
		for j := range a.Files {
			if a.Files[j].Path != b.Files[j].Path {
				t.Errorf("group %d member %d differs: %s vs %s",
					i, j, a.Files[j].Path, b.Files[j].Path)
			}
		}
	}
}

func TestEngineGroupsArePartition(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "photo.png"), 64, false)
	writePNG(t, filepath.Join(dir, "photo_copy.png"), 64, false)
	writePNG(t, filepath.Join(dir, "beach.png"), 48, true)
	writePNG(t, filepath.Join(dir, "beach_copy.png"), 48, true)

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(result.Groups))
	}

	seen := make(map[string]bool)
	for _, g := range result.Groups {
		for _, f := range g.Files {
			if seen[f.Path] {
				t.Errorf("file %s appears in more than one group", f.Path)
			}
			seen[f.Path] = true
		}
	}

	// Groups are ordered by original path.
	if result.Groups[0].Original().Path > result.Groups[1].Original().Path {
		t.Error("groups not ordered by original path")
	}
}

func TestEngineEmptyDirectory(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{t.TempDir()})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(result.Groups) != 0 || result.FilesScanned != 0 {
		t.Errorf("expected empty result, got %d groups, %d files",
			len(result.Groups), result.FilesScanned)
	}
}

func TestEngineNoValidPaths(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t)
	_, err := eng.Find(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrNoValidPaths) {
		t.Errorf("Find() error = %v, want ErrNoValidPaths", err)
	}
}

func TestEngineMixedValidAndInvalidRoots(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{
		dir,
		filepath.Join(dir, "does-not-exist"),
	})
	if err != nil {
		t.Fatalf("Find() error = %v, want nil with one valid root", err)
	}
	if len(result.Errors) == 0 {
		t.Error("expected a diagnostic for the missing root")
	}
	if len(result.Groups) != 1 {
		t.Errorf("len(Groups) = %d, want 1", len(result.Groups))
	}
}

func TestEngineSingleFileRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "only.png")
	writePNG(t, path, 64, false)

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesScanned != 1 || len(result.Groups) != 0 {
		t.Errorf("FilesScanned = %d, Groups = %d, want 1 and 0",
			result.FilesScanned, len(result.Groups))
	}
}

func TestEngineUndecodableFileIsDiagnosed(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	if err := os.WriteFile(filepath.Join(dir, "corrupt.jpg"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	eng := newTestEngine(t)
	result, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Find() error = %v, corrupt file must not fail the scan", err)
	}

	if result.FilesScanned != 4 {
		t.Errorf("FilesScanned = %d, want 4", result.FilesScanned)
	}

	found := false
	for _, e := range result.Errors {
		if filepath.Base(e.Path) == "corrupt.jpg" {
			found = true
		}
	}
	if !found {
		t.Error("expected a diagnostic for corrupt.jpg")
	}

	// Duplicate detection is unaffected.
	if len(result.Groups) != 1 {
		t.Errorf("len(Groups) = %d, want 1", len(result.Groups))
	}
}

func TestEngineWithCache(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	c, err := cache.Open(filepath.Join(t.TempDir(), "fingerprints"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	eng, err := New(Options{Config: types.DefaultComparisonConfig(), Workers: 2, Cache: c})
	if err != nil {
		t.Fatal(err)
	}

	first, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	// Second scan restores fingerprints from the cache and must produce
	// the same grouping.
	second, err := eng.Find(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Groups) != 1 || len(second.Groups) != 1 {
		t.Fatalf("group counts = %d and %d, want 1 and 1",
			len(first.Groups), len(second.Groups))
	}
	if first.Groups[0].Original().Path != second.Groups[0].Original().Path {
		t.Error("cached scan selected a different original")
	}
}

func TestEngineCancelledContext(t *testing.T) {
	t.Parallel()
	dir := duplicateDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := newTestEngine(t)
	result, err := eng.Find(ctx, []string{dir})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Find() error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Error("expected a partial result alongside the cancellation error")
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults workers", func(t *testing.T) {
		t.Parallel()
		opts := Options{Config: types.DefaultComparisonConfig()}
		if err := opts.Validate(); err != nil {
			t.Fatal(err)
		}
		if opts.Workers <= 0 || opts.Workers > maxWorkers {
			t.Errorf("Workers = %d, want in (0, %d]", opts.Workers, maxWorkers)
		}
	})

	t.Run("caps workers", func(t *testing.T) {
		t.Parallel()
		opts := Options{Config: types.DefaultComparisonConfig(), Workers: 1000}
		if err := opts.Validate(); err != nil {
			t.Fatal(err)
		}
		if opts.Workers != maxWorkers {
			t.Errorf("Workers = %d, want %d", opts.Workers, maxWorkers)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()
		opts := Options{Config: types.ComparisonConfig{Threshold: 2}}
		if err := opts.Validate(); err == nil {
			t.Error("expected error for invalid threshold")
		}
	})
}
