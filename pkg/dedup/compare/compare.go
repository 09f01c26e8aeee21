// Package compare implements the pairwise duplicate comparator. It
// combines the per-signal similarities of two candidate files into a
// single confidence score and a duplicate verdict under a configured
// threshold.
package compare

import (
	"path/filepath"

	"github.com/jamesainslie/dedup/pkg/dedup/signal"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// Verdict is the outcome of comparing one unordered pair of files.
type Verdict struct {
	// Duplicate reports whether the pair's aggregate similarity
	// reached the configured threshold.
	Duplicate bool

	// Confidence is the aggregate similarity in [0,1].
	Confidence float64

	// Evaluated is the number of signals that contributed to the
	// aggregate. Zero means no enabled signal was available for the
	// pair; such pairs are never duplicates.
	Evaluated int
}

// Compare scores one unordered pair of files under cfg.
//
// Two short-circuit rules apply before signal aggregation:
//   - An identical normalized name token (or byte-identical filename)
//     plus byte-identical size is the cheap exact-duplicate path:
//     verdict true with confidence 1.0, regardless of threshold and
//     without consulting metadata or visual evidence.
//   - When an enabled signal is unavailable for either side (failed
//     visual decode, absent metadata) it is excluded from the aggregate
//     rather than penalizing the pair.
//
// When every enabled signal is unavailable the verdict is false:
// insufficient evidence never defaults to duplicate.
func Compare(a, b *types.FileRecord, cfg types.ComparisonConfig) Verdict {
	if a.Size == b.Size && exactName(a, b) {
		return Verdict{Duplicate: true, Confidence: 1.0, Evaluated: 1}
	}

	var sum float64
	var n int

	if cfg.CheckNames {
		sum += nameScore(a, b)
		n++
	}
	if cfg.CheckSizes {
		sum += sizeScore(a, b)
		n++
	}
	if cfg.CheckMetadata {
		if score, ok := metadataScore(a, b, cfg.MetadataPartialWeight); ok {
			sum += score
			n++
		}
	}
	if cfg.CheckVisual {
		if a.Visual != nil && b.Visual != nil {
			sum += a.Visual.Similarity(b.Visual)
			n++
		}
	}

	if n == 0 {
		return Verdict{}
	}

	confidence := sum / float64(n)
	return Verdict{
		Duplicate:  confidence >= cfg.Threshold,
		Confidence: confidence,
		Evaluated:  n,
	}
}

// exactName reports whether the pair's names are identical for the
// purpose of the exact-duplicate short-circuit: equal normalized
// tokens, or equal basenames for records without a computed token.
func exactName(a, b *types.FileRecord) bool {
	if a.NameToken != "" && a.NameToken == b.NameToken {
		return true
	}
	return filepath.Base(a.Path) == filepath.Base(b.Path)
}

// nameScore is 1.0 when the normalized tokens are equal or one contains
// the other, else 0.0.
func nameScore(a, b *types.FileRecord) float64 {
	if signal.NamesSimilar(a.NameToken, b.NameToken) {
		return 1.0
	}
	return 0.0
}

// sizeScore is 1.0 on exact byte equality, else 0.0.
func sizeScore(a, b *types.FileRecord) float64 {
	if a.Size == b.Size && a.Size > 0 {
		return 1.0
	}
	return 0.0
}

// metadataScore compares the tags present on both sides. The second
// return is false when the signal is unavailable for the pair (either
// side has no metadata, or no tag is present on both sides).
//
// Scoring: all shared tags match -> 1.0; some match -> the match ratio
// scaled by partialWeight; none match -> 0.0 (present but contradictory
// metadata is evidence against duplication).
func metadataScore(a, b *types.FileRecord, partialWeight float64) (float64, bool) {
	ma, mb := a.Metadata, b.Metadata
	if ma == nil || mb == nil {
		return 0, false
	}

	var compared, matched int

	if ma.HasCaptureTime() && mb.HasCaptureTime() {
		compared++
		if ma.CaptureTime.Equal(mb.CaptureTime) {
			matched++
		}
	}
	if ma.HasDimensions() && mb.HasDimensions() {
		compared++
		if ma.Width == mb.Width && ma.Height == mb.Height {
			matched++
		}
	}

	if compared == 0 {
		return 0, false
	}

	switch {
	case matched == compared:
		return 1.0, true
	case matched == 0:
		return 0.0, true
	default:
		return float64(matched) / float64(compared) * partialWeight, true
	}
}
