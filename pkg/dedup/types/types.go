// Package types provides core data types for the dedup duplicate finder.
// It includes structures for candidate files, computed fingerprints,
// duplicate groups, and resolution outcomes, along with utility functions
// for formatting file sizes and parsing resolution actions.
package types

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/dustin/go-humanize"
)

// FileRecord is one candidate file in a scan. The stat fields are filled
// during enumeration; the fingerprint fields are filled during the
// extraction phase and are nil while a signal is unavailable for the file
// (extraction disabled, failed, or not applicable).
//
// A FileRecord is owned by a single scan and is never mutated after the
// extraction phase completes.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`

	// NameToken is the normalized filename stem with copy/numbering
	// suffixes stripped. Always populated.
	NameToken string `json:"name_token"`

	// Metadata holds embedded descriptive tags, or nil when the file
	// carries none or metadata extraction was disabled.
	Metadata *MetadataSignature `json:"metadata,omitempty"`

	// Visual holds the perceptual hash of the decoded pixel content,
	// or nil when the file could not be decoded or visual extraction
	// was disabled.
	Visual *VisualHash `json:"visual,omitempty"`
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// MetadataSignature holds the embedded tags used for metadata comparison.
// Zero values mean the tag is absent.
type MetadataSignature struct {
	// CaptureTime is the embedded capture timestamp (EXIF DateTimeOriginal).
	CaptureTime time.Time `json:"capture_time,omitempty"`

	// Width and Height are the embedded pixel dimensions.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// HasCaptureTime reports whether a capture timestamp is present.
func (m *MetadataSignature) HasCaptureTime() bool {
	return m != nil && !m.CaptureTime.IsZero()
}

// HasDimensions reports whether pixel dimensions are present.
func (m *MetadataSignature) HasDimensions() bool {
	return m != nil && m.Width > 0 && m.Height > 0
}

// VisualHashBits is the width of each perceptual hash in bits.
const VisualHashBits = 64

// VisualHash is a fixed-width perceptual fingerprint of decoded pixel
// content. Two hash families are combined so that minor recompression
// artifacts in one are compensated by the other.
type VisualHash struct {
	// PHash is the DCT-based perception hash.
	PHash uint64 `json:"phash"`

	// DHash is the gradient-based difference hash.
	DHash uint64 `json:"dhash"`
}

// Similarity returns the visual similarity to another hash in [0,1],
// computed as one minus the mean normalized Hamming distance across
// both hash families.
func (v *VisualHash) Similarity(other *VisualHash) float64 {
	if v == nil || other == nil {
		return 0
	}
	dist := bits.OnesCount64(v.PHash^other.PHash) + bits.OnesCount64(v.DHash^other.DHash)
	return 1.0 - float64(dist)/float64(2*VisualHashBits)
}

// ComparisonConfig selects the signals evaluated by the pairwise
// comparator and the threshold an aggregate score must reach for a
// duplicate verdict. It is immutable for the duration of one scan.
type ComparisonConfig struct {
	// Threshold is the duplicate-verdict threshold in [0,1].
	Threshold float64 `json:"threshold"`

	// CheckNames enables the normalized-filename signal.
	CheckNames bool `json:"check_filenames"`

	// CheckSizes enables the exact byte-size signal.
	CheckSizes bool `json:"check_filesizes"`

	// CheckMetadata enables the embedded-tags signal.
	CheckMetadata bool `json:"check_metadata"`

	// CheckVisual enables the perceptual-hash signal.
	CheckVisual bool `json:"check_visual_similarity"`

	// MetadataPartialWeight scales the metadata score when only some
	// of the present tags match and none contradict. Tunable; 0.5 by
	// default.
	MetadataPartialWeight float64 `json:"metadata_partial_weight"`
}

// DefaultMetadataPartialWeight is the default scaling for partial
// metadata matches.
const DefaultMetadataPartialWeight = 0.5

// ErrInvalidThreshold indicates a similarity threshold outside [0,1].
var ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")

// ErrNoSignals indicates a configuration with every signal disabled.
var ErrNoSignals = errors.New("at least one comparison signal must be enabled")

// Validate checks the configuration for usable values and fills the
// partial-match weight default.
func (c *ComparisonConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, c.Threshold)
	}
	if !c.CheckNames && !c.CheckSizes && !c.CheckMetadata && !c.CheckVisual {
		return ErrNoSignals
	}
	if c.MetadataPartialWeight <= 0 || c.MetadataPartialWeight > 1 {
		c.MetadataPartialWeight = DefaultMetadataPartialWeight
	}
	return nil
}

// DefaultComparisonConfig returns a configuration with every signal
// enabled and the standard threshold.
func DefaultComparisonConfig() ComparisonConfig {
	return ComparisonConfig{
		Threshold:             0.85,
		CheckNames:            true,
		CheckSizes:            true,
		CheckMetadata:         true,
		CheckVisual:           true,
		MetadataPartialWeight: DefaultMetadataPartialWeight,
	}
}

// DuplicateGroup is a maximal set of files connected by pairwise
// duplicate verdicts. Files[0] is always the designated original; the
// remaining entries are its duplicates. Groups are immutable once
// returned from a scan.
type DuplicateGroup struct {
	// Files holds the group members, original first. Always len >= 2.
	Files []*FileRecord `json:"files"`

	// Similarity is the highest pairwise confidence observed within
	// the group.
	Similarity float64 `json:"similarity"`
}

// Original returns the designated canonical member.
func (g *DuplicateGroup) Original() *FileRecord {
	return g.Files[0]
}

// Duplicates returns the non-original members.
func (g *DuplicateGroup) Duplicates() []*FileRecord {
	return g.Files[1:]
}

// PotentialSavings returns the bytes occupied by the non-original
// members, i.e. the space reclaimable by resolving the group.
func (g *DuplicateGroup) PotentialSavings() int64 {
	var total int64
	for _, f := range g.Files[1:] {
		total += f.Size
	}
	return total
}

// ScanError pairs a file path with the error that excluded it from the
// scan. The scan itself continues past these.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// ScanResult is the output of one duplicate scan.
type ScanResult struct {
	// Groups are the duplicate groups found, ordered by original path.
	Groups []DuplicateGroup `json:"groups"`

	// FilesScanned is the number of candidate files enumerated.
	FilesScanned int64 `json:"files_scanned"`

	// Comparisons is the number of pairwise comparisons performed.
	Comparisons int64 `json:"comparisons"`

	// Elapsed is the total scan duration.
	Elapsed time.Duration `json:"elapsed"`

	// Errors are per-file diagnostics recorded during the scan.
	Errors []ScanError `json:"errors,omitempty"`
}

// DuplicateCount returns the total number of non-original files across
// all groups.
func (r *ScanResult) DuplicateCount() int {
	var n int
	for _, g := range r.Groups {
		n += len(g.Files) - 1
	}
	return n
}

// PotentialSavings returns the total reclaimable bytes across all groups.
func (r *ScanResult) PotentialSavings() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.PotentialSavings()
	}
	return total
}

// Action is the mutation applied to non-original group members.
type Action string

// Supported resolution actions.
const (
	// ActionRelocate moves originals and duplicates into organized
	// subfolders under the output folder.
	ActionRelocate Action = "move_organize"

	// ActionDelete removes duplicate files.
	ActionDelete Action = "delete"

	// ActionLink replaces duplicates with hard links to the original.
	ActionLink Action = "link"
)

// ErrInvalidAction indicates an unrecognized action token.
var ErrInvalidAction = errors.New("invalid resolution action")

// ParseAction parses an action token supplied by the caller.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionRelocate, ActionDelete, ActionLink:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// FileResult records the outcome of one per-file resolution operation.
type FileResult struct {
	// Source is the path the file had when the group was computed.
	Source string `json:"source"`

	// Destination is the path the file was moved or linked to, when
	// the action relocated it.
	Destination string `json:"destination,omitempty"`

	// Action is the operation that was attempted.
	Action Action `json:"action"`

	// OK reports whether the operation succeeded.
	OK bool `json:"ok"`

	// Error describes the failure when OK is false.
	Error string `json:"error,omitempty"`
}

// ResolutionOutcome aggregates the results of one resolution batch.
// It is created fresh per invocation and immutable once returned.
type ResolutionOutcome struct {
	// GroupsProcessed is the number of groups the executor visited.
	GroupsProcessed int `json:"groups_processed"`

	// FilesRelocated counts files successfully moved, deleted, or linked.
	FilesRelocated int `json:"files_relocated"`

	// FilesFailed counts per-file operations that failed.
	FilesFailed int `json:"files_failed"`

	// BytesReclaimed is the total size of duplicates successfully
	// resolved away from their source location.
	BytesReclaimed int64 `json:"bytes_reclaimed"`

	// Incomplete is set when the batch was cancelled before all groups
	// were processed. Already-applied operations are not rolled back.
	Incomplete bool `json:"incomplete,omitempty"`

	// Results itemizes every attempted per-file operation.
	Results []FileResult `json:"results"`
}

// Summary returns a one-line human-readable status distinguishing full
// success, partial success, and cancellation.
func (o *ResolutionOutcome) Summary() string {
	switch {
	case o.Incomplete:
		return fmt.Sprintf("cancelled after %d groups (%d files resolved, %d failed)",
			o.GroupsProcessed, o.FilesRelocated, o.FilesFailed)
	case o.FilesFailed > 0:
		return fmt.Sprintf("partially succeeded: %d files resolved, %d failed",
			o.FilesRelocated, o.FilesFailed)
	default:
		return fmt.Sprintf("resolved %d files in %d groups, %s reclaimed",
			o.FilesRelocated, o.GroupsProcessed, FormatSize(o.BytesReclaimed))
	}
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
