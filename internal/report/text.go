package report

import (
	"fmt"
	"io"
	"strings"
)

// TextReporter writes a human readable summary.
type TextReporter struct {
	Verbose   bool
	UseColour bool
}

const (
	colReset     = "\033[0m"
	colGreen     = "\033[32m"
	colYellow    = "\033[33m"
	colGrey      = "\033[90m"
	colWhite     = "\033[37m"
	colBoldWhite = "\033[1;37m"
)

// cs returns s wrapped in colour c when colourisation is enabled.
func (tr *TextReporter) cs(c, s string) string {
	if !tr.UseColour {
		return s
	}
	return c + s + colReset
}

func (tr *TextReporter) Write(w io.Writer, s *Summary) error {
	divider := strings.Repeat("-", 40)

	revision := s.Revision
	if revision == "" {
		revision = "(none)"
	}

	fmt.Fprintf(w, "%s\n", divider)
	fmt.Fprint(w, tr.cs(colBoldWhite, "BSTAGE BUILD REPORT\n\n"))
	fmt.Fprintf(w, "%s %s\n", tr.cs(colGrey, "Started:    "), tr.cs(colWhite, s.StartTime.Format("15:04:05")))
	fmt.Fprintf(w, "%s %s\n", tr.cs(colGrey, "Duration:   "), tr.cs(colWhite, s.Duration().String()))
	fmt.Fprintf(w, "%s %s\n", tr.cs(colGrey, "Environment:"), tr.cs(colWhite, string(s.Environment)))
	fmt.Fprintf(w, "%s %s\n", tr.cs(colGrey, "Revision:   "), tr.cs(colWhite, revision))
	fmt.Fprintf(w, "%s\n", divider)

	b := s.Bundle
	fmt.Fprintf(w, "%s %s (%s, %d inputs, %d packages)\n",
		tr.cs(colGreen, "[BUNDLE]"), b.Outfile, formatBytes(b.Bytes), b.Inputs, len(b.Packages))
	if b.SourceMapBytes > 0 {
		fmt.Fprintf(w, "  %s\n", tr.cs(colGrey, "source map "+formatBytes(b.SourceMapBytes)))
	}
	if b.Warnings > 0 {
		fmt.Fprintf(w, "  %s\n", tr.cs(colYellow, fmt.Sprintf("%d warning(s)", b.Warnings)))
	}
	if tr.Verbose {
		for _, p := range b.Packages {
			fmt.Fprintf(w, "  %s\n", tr.cs(colGrey, p))
		}
	}

	for _, op := range s.Staged {
		suffix := ""
		if op.BackedUp {
			suffix = tr.cs(colYellow, " (previous content backed up)")
		}
		fmt.Fprintf(w, "%s %s%s\n", tr.cs(colGreen, "[STAGED]"), op.Asset, suffix)
		if tr.Verbose {
			fmt.Fprintf(w, "  %s\n", tr.cs(colGrey, op.Source+" -> "+op.Destination))
		}
	}

	fmt.Fprintf(w, "%s\n", divider)
	fmt.Fprintf(w, "%s%s\n", tr.cs(colBoldWhite, "Summary: "),
		fmt.Sprintf("%d asset(s) staged, %d backed up to %s", len(s.Staged), s.BackedUp(), s.BackupRoot))
	fmt.Fprintf(w, "%s\n", divider)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
