// Package signal provides the independent fingerprint extractors used by
// the duplicate finder: normalized name tokens, embedded metadata tags,
// and perceptual hashes of decoded pixel content.
//
// Each extractor fails independently. A file that cannot be decoded as an
// image still participates in name, size, and metadata comparison.
package signal

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind identifies one fingerprint signal dimension.
type Kind int

// Signal kinds.
const (
	KindName Kind = iota
	KindSize
	KindMetadata
	KindVisual
)

// String returns the signal name.
func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindSize:
		return "size"
	case KindMetadata:
		return "metadata"
	case KindVisual:
		return "visual"
	default:
		return "unknown"
	}
}

// ErrUnreadable indicates the file could not be opened or stat'd.
var ErrUnreadable = errors.New("file unreadable")

// ErrUndecodable indicates the file content is not a decodable image.
// Visual similarity is treated as unknown for such files, never as a
// scan failure.
var ErrUndecodable = errors.New("not a decodable image")

// recognizedExts are the file extensions eligible for scanning. Files
// with other extensions are silently excluded from candidate sets.
var recognizedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
	".gif":  true,
	".ico":  true,
}

// decodableExts are the extensions the visual extractor can decode.
// This is a subset of recognizedExts: .ico files are scanned using the
// remaining signals only.
var decodableExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
	".gif":  true,
}

// Recognized reports whether the path has an extension eligible for
// scanning.
func Recognized(path string) bool {
	return recognizedExts[strings.ToLower(filepath.Ext(path))]
}

// Availability reports which optional signals this build can compute.
// It is checked once at engine construction so callers can decide
// whether to proceed with reduced signal coverage.
type Availability struct {
	// Metadata reports whether embedded-tag extraction is available.
	Metadata bool

	// Visual reports whether perceptual hashing is available.
	Visual bool
}

// Capabilities returns the signal availability of this build. The
// extractors are compiled in unconditionally, so both optional signals
// are always available; per-file decodability is still checked at
// extraction time.
func Capabilities() Availability {
	return Availability{Metadata: true, Visual: true}
}

// CanDecode reports whether the visual extractor supports the path's
// image format.
func CanDecode(path string) bool {
	return decodableExts[strings.ToLower(filepath.Ext(path))]
}
