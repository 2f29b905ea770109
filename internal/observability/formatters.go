// Package observability provides formatted output for the end of a session.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobsheet/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// separator frames the per-status breakdown
	separator = "- - - - - - - - - - - - - - - - - -"
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fitLine(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// fitLine cuts line to at most width runes, ending in "..." when cut.
func fitLine(line string, width int) string {
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width-3]) + "..."
}

// PrintSummary outputs the number of updates, the non-zero per-status counts and the
// elapsed time. Stale facts are part of the update count.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(summary *types.SessionSummary) {
	if summary == nil {
		return
	}

	fmt.Fprintf(p.out, "\n%s\n\n", separator)
	fmt.Fprintf(p.out, "%d updates were made\n", summary.Total())
	for _, s := range types.AllStatuses {
		if n := summary.Counts[s]; n > 0 {
			fmt.Fprintf(p.out, "%s: %d\n", s, n)
		}
	}
	fmt.Fprintf(p.out, "\n%s\n\n", separator)
	fmt.Fprintf(p.out, "The session took: %.2f seconds\n", summary.Elapsed.Seconds())
}

// PrintSessionDetails outputs the outcome tallies behind the summary.
func (p *Printer) PrintSessionDetails(summary *types.SessionSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:  %s\n", summary.ID))
	sb.WriteString(fmt.Sprintf("Window:   last %d days\n", summary.Days))
	sb.WriteString(fmt.Sprintf("Messages: %d\n", summary.Messages))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Inserted: %d\n", summary.Inserted))
	sb.WriteString(fmt.Sprintf("Updated:  %d\n", summary.Updated))
	sb.WriteString(fmt.Sprintf("Stale:    %d\n", summary.Stale))
	sb.WriteString(fmt.Sprintf("Skipped:  %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:   %d", summary.Failed))

	p.printBox("SESSION DETAILS", sb.String())
}

// PrintRows outputs tracking rows, one line per row, as a dry run leaves them.
func (p *Printer) PrintRows(rows []types.TrackingRow) {
	if len(rows) == 0 {
		p.printBox("TRACKING SHEET (DRY RUN)", "No rows")
		return
	}

	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s  %s | %s | %s", row.Range, row.Company, row.Role, row.Status))
		sb.WriteString(fmt.Sprintf("\n        %s", row.Date))
		if row.Notes != "" {
			sb.WriteString(fmt.Sprintf("\n        %s", row.Notes))
		}
	}

	p.printBox(fmt.Sprintf("TRACKING SHEET (DRY RUN, %d rows)", len(rows)), sb.String())
}
