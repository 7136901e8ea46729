package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/quill/internal/review"
)

// TextWriter renders a report for the terminal.
type TextWriter struct{}

// Write renders the report.
func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	for i, s := range report.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.File)
		fmt.Fprintln(w, strings.Repeat("=", len(s.File)))
		fmt.Fprintln(w, s.Content)
	}

	if len(report.Failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Not reviewed:")
		for _, f := range report.Failed {
			fmt.Fprintf(w, "  %s: %v\n", f.File, f.Err)
		}
	}

	if report.Usage.TotalTokens > 0 {
		fmt.Fprintf(w, "\nTokens used: %d\n", report.Usage.TotalTokens)
	}
	return nil
}
