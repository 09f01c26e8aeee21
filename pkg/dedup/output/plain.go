package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// timePrecision is the rounding applied to displayed durations.
const timePrecision = time.Millisecond

// formatBytes renders a byte count in binary units.
func formatBytes(n int64) string {
	if n < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// PlainFormatter renders duplicate groups as aligned plain text with no
// borders, suitable for piping into other tools.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	if len(r.Groups) == 0 {
		fmt.Fprintf(w, "no duplicates found (%d files scanned)\n", r.Stats.FilesScanned)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, g := range r.Groups {
		fmt.Fprintf(tw, "group %d\t%.0f%%\t%s reclaimable\n", i+1, g.Similarity*100, g.SavingsHuman)
		fmt.Fprintf(tw, "  original\t%s\t%s\n", g.Original.SizeHuman, g.Original.Path)
		for _, d := range g.Duplicates {
			fmt.Fprintf(tw, "  duplicate\t%s\t%s\n", d.SizeHuman, d.Path)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d groups, %d duplicates, %s reclaimable\n",
		len(r.Groups), r.DuplicateCount(), formatBytes(r.TotalSavings()))

	writeWarnings(w, r)
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
