package output

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders duplicate groups as a bordered table, one row
// per file, with a summary footer.
type TableFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TableFormatter) Format(w *bytes.Buffer, r *Report) error {
	if len(r.Groups) == 0 {
		fmt.Fprintf(w, "No duplicates found (%d files scanned in %s)\n",
			r.Stats.FilesScanned, r.Stats.Duration.Round(timePrecision))
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"GROUP", "ROLE", "SIZE", "SIMILARITY", "PATH"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for i, g := range r.Groups {
		similarity := fmt.Sprintf("%.0f%%", g.Similarity*100)
		tw.AppendRow(table.Row{i + 1, "original", g.Original.SizeHuman, similarity, g.Original.Path})
		for _, d := range g.Duplicates {
			tw.AppendRow(table.Row{"", "duplicate", d.SizeHuman, "", d.Path})
		}
		if i < len(r.Groups)-1 {
			tw.AppendSeparator()
		}
	}

	tw.AppendFooter(table.Row{"", "", "", "",
		fmt.Sprintf("%d groups, %d duplicates, %s reclaimable",
			len(r.Groups), r.DuplicateCount(), formatBytes(r.TotalSavings()))})

	tw.Render()

	writeWarnings(w, r)
	return nil
}

// writeWarnings appends per-file diagnostics below the table.
func writeWarnings(w *bytes.Buffer, r *Report) {
	if len(r.Warnings) == 0 {
		return
	}
	w.WriteString("\nWarnings:\n")
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
}

func init() {
	Register("table", func() Formatter {
		return &TableFormatter{}
	})
}

// Ensure TableFormatter implements Formatter.
var _ Formatter = (*TableFormatter)(nil)
