// Package config provides configuration management for the dedup tool.
package config

// Default configuration values for dedup.
const (
	// DefaultThreshold is the minimum aggregate confidence for two files
	// to be considered duplicates.
	DefaultThreshold = 0.85

	// DefaultMetadataPartialWeight scales the score of a partial
	// metadata match.
	DefaultMetadataPartialWeight = 0.5

	// DefaultPath is the default path to scan when none is specified.
	DefaultPath = "."

	// DefaultOutputFolder is the default destination for relocated files.
	DefaultOutputFolder = "output"

	// DefaultRetentionDays is the default number of days to retain
	// manifest entries.
	DefaultRetentionDays = 30

	// DefaultWorkers is the default fingerprint and comparison worker
	// count. Zero means one worker per CPU.
	DefaultWorkers = 0

	// DefaultFormat is the default report format.
	DefaultFormat = "table"
)
