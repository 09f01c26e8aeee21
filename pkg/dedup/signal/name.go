package signal

import (
	"path/filepath"
	"regexp"
	"strings"
)

// copySuffixPattern matches trailing markers that indicate a file copy:
// "_1", "-2", " (3)", "_copy", "-backup" and similar. Stripping them
// maps "IMG_001_copy.jpg" and "IMG_001.jpg" to the same token.
var copySuffixPattern = regexp.MustCompile(`(?i)[_\-\s]*(?:copy|backup|\d+|\(\d+\))[_\-\s]*$`)

// minNameToken is the shortest token eligible for similarity matching.
// Stripping suffixes from very short names ("1.jpg", "a_2.png") leaves
// tokens too generic to be evidence of duplication.
const minNameToken = 3

// NameToken returns the normalized name fingerprint for a path: the
// lower-cased filename stem with copy/numbering suffixes stripped.
// When stripping would leave a token shorter than minNameToken, the
// unstripped stem is kept instead.
func NameToken(path string) string {
	base := filepath.Base(path)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	stripped := copySuffixPattern.ReplaceAllString(stem, "")
	if len(stripped) >= minNameToken {
		return stripped
	}
	return stem
}

// NamesSimilar reports whether two name tokens are name-similar: equal,
// or one contained in the other. Containment covers patterns such as
// "holiday" vs "holiday edited" that suffix stripping does not catch.
func NamesSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) < minNameToken || len(b) < minNameToken {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
