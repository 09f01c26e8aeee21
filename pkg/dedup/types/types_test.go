package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestComparisonConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultComparisonConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects threshold above one", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultComparisonConfig()
		cfg.Threshold = 1.5
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidThreshold) {
			t.Fatalf("Validate() error = %v, want ErrInvalidThreshold", err)
		}
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultComparisonConfig()
		cfg.Threshold = -0.1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidThreshold) {
			t.Fatalf("Validate() error = %v, want ErrInvalidThreshold", err)
		}
	})

	t.Run("rejects all signals disabled", func(t *testing.T) {
		t.Parallel()
		cfg := ComparisonConfig{Threshold: 0.85}
		if err := cfg.Validate(); !errors.Is(err, ErrNoSignals) {
			t.Fatalf("Validate() error = %v, want ErrNoSignals", err)
		}
	})

	t.Run("fills partial weight default", func(t *testing.T) {
		t.Parallel()
		cfg := ComparisonConfig{Threshold: 0.85, CheckNames: true}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if cfg.MetadataPartialWeight != DefaultMetadataPartialWeight {
			t.Errorf("MetadataPartialWeight = %v, want %v",
				cfg.MetadataPartialWeight, DefaultMetadataPartialWeight)
		}
	})
}

func TestVisualHashSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical hashes", func(t *testing.T) {
		t.Parallel()
		a := &VisualHash{PHash: 0xDEADBEEF, DHash: 0xCAFEBABE}
		b := &VisualHash{PHash: 0xDEADBEEF, DHash: 0xCAFEBABE}
		if got := a.Similarity(b); got != 1.0 {
			t.Errorf("Similarity() = %v, want 1.0", got)
		}
	})

	t.Run("fully inverted hashes", func(t *testing.T) {
		t.Parallel()
		a := &VisualHash{PHash: 0, DHash: 0}
		b := &VisualHash{PHash: ^uint64(0), DHash: ^uint64(0)}
		if got := a.Similarity(b); got != 0.0 {
			t.Errorf("Similarity() = %v, want 0.0", got)
		}
	})

	t.Run("single differing bit", func(t *testing.T) {
		t.Parallel()
		a := &VisualHash{PHash: 0, DHash: 0}
		b := &VisualHash{PHash: 1, DHash: 0}
		want := 1.0 - 1.0/128.0
		if got := a.Similarity(b); got != want {
			t.Errorf("Similarity() = %v, want %v", got, want)
		}
	})

	t.Run("nil receiver or argument", func(t *testing.T) {
		t.Parallel()
		var a *VisualHash
		b := &VisualHash{}
		if got := a.Similarity(b); got != 0 {
			t.Errorf("nil.Similarity() = %v, want 0", got)
		}
		if got := b.Similarity(nil); got != 0 {
			t.Errorf("Similarity(nil) = %v, want 0", got)
		}
	})
}

func TestMetadataSignaturePresence(t *testing.T) {
	t.Parallel()

	var nilMeta *MetadataSignature
	if nilMeta.HasCaptureTime() || nilMeta.HasDimensions() {
		t.Error("nil metadata should report no tags present")
	}

	empty := &MetadataSignature{}
	if empty.HasCaptureTime() || empty.HasDimensions() {
		t.Error("empty metadata should report no tags present")
	}

	full := &MetadataSignature{
		CaptureTime: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
		Width:       4032,
		Height:      3024,
	}
	if !full.HasCaptureTime() || !full.HasDimensions() {
		t.Error("populated metadata should report tags present")
	}
}

func TestDuplicateGroup(t *testing.T) {
	t.Parallel()

	group := DuplicateGroup{
		Files: []*FileRecord{
			{Path: "/pics/a.jpg", Size: 100},
			{Path: "/pics/a_copy.jpg", Size: 100},
			{Path: "/pics/a_2.jpg", Size: 100},
		},
		Similarity: 0.95,
	}

	if got := group.Original().Path; got != "/pics/a.jpg" {
		t.Errorf("Original().Path = %q, want /pics/a.jpg", got)
	}
	if got := len(group.Duplicates()); got != 2 {
		t.Errorf("len(Duplicates()) = %d, want 2", got)
	}
	if got := group.PotentialSavings(); got != 200 {
		t.Errorf("PotentialSavings() = %d, want 200", got)
	}
}

func TestScanResultAggregates(t *testing.T) {
	t.Parallel()

	result := ScanResult{
		Groups: []DuplicateGroup{
			{Files: []*FileRecord{{Size: 10}, {Size: 20}}},
			{Files: []*FileRecord{{Size: 5}, {Size: 5}, {Size: 5}}},
		},
	}

	if got := result.DuplicateCount(); got != 3 {
		t.Errorf("DuplicateCount() = %d, want 3", got)
	}
	if got := result.PotentialSavings(); got != 30 {
		t.Errorf("PotentialSavings() = %d, want 30", got)
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{"move_organize", ActionRelocate, false},
		{"delete", ActionDelete, false},
		{"link", ActionLink, false},
		{"", "", true},
		{"MOVE_ORGANIZE", "", true},
		{"shred", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAction) {
				t.Errorf("ParseAction(%q) error = %v, want ErrInvalidAction", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAction(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolutionOutcomeSummary(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		o := ResolutionOutcome{GroupsProcessed: 2, FilesRelocated: 3, BytesReclaimed: 1024}
		if s := o.Summary(); !strings.Contains(s, "resolved 3 files in 2 groups") {
			t.Errorf("Summary() = %q", s)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		t.Parallel()
		o := ResolutionOutcome{FilesRelocated: 2, FilesFailed: 1}
		if s := o.Summary(); !strings.Contains(s, "partially succeeded") {
			t.Errorf("Summary() = %q", s)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		o := ResolutionOutcome{Incomplete: true, GroupsProcessed: 1}
		if s := o.Summary(); !strings.Contains(s, "cancelled") {
			t.Errorf("Summary() = %q", s)
		}
	})
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
