package output

import (
	"bytes"
	"encoding/json"
)

// jsonReport represents the full JSON output structure.
type jsonReport struct {
	Groups []GroupView `json:"groups"`
	Stats  jsonStats   `json:"stats"`
	Meta   jsonMeta    `json:"meta"`
}

// jsonStats represents scan statistics in JSON output.
type jsonStats struct {
	FilesScanned int64  `json:"files_scanned"`
	Comparisons  int64  `json:"comparisons"`
	Duration     string `json:"duration"`
	Errors       int    `json:"errors"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Sources      []string `json:"sources"`
	GroupCount   int      `json:"group_count"`
	Duplicates   int      `json:"duplicates"`
	TotalSavings int64    `json:"total_savings"`
	Warnings     []string `json:"warnings,omitempty"`
	Interrupted  bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	out := jsonReport{
		Groups: r.Groups,
		Stats: jsonStats{
			FilesScanned: r.Stats.FilesScanned,
			Comparisons:  r.Stats.Comparisons,
			Duration:     r.Stats.Duration.String(),
			Errors:       r.Stats.Errors,
		},
		Meta: jsonMeta{
			Sources:      r.Sources,
			GroupCount:   len(r.Groups),
			Duplicates:   r.DuplicateCount(),
			TotalSavings: r.TotalSavings(),
			Warnings:     r.Warnings,
			Interrupted:  r.Interrupted,
		},
	}
	if out.Groups == nil {
		out.Groups = []GroupView{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
