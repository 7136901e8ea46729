// Package ui renders user-facing notifications on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Notifier writes colored status messages. Info goes to stdout, warnings and
// errors to stderr.
type Notifier struct {
	Out    io.Writer
	ErrOut io.Writer

	info *color.Color
	warn *color.Color
	fail *color.Color
}

// NewNotifier creates a Notifier bound to the process streams.
func NewNotifier() *Notifier {
	return &Notifier{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		info:   color.New(color.FgCyan),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
	}
}

// Infof prints an informational message.
func (n *Notifier) Infof(format string, args ...any) {
	fmt.Fprintln(n.Out, n.info.Sprintf(format, args...))
}

// Warnf prints a warning.
func (n *Notifier) Warnf(format string, args ...any) {
	fmt.Fprintln(n.ErrOut, n.warn.Sprint("warning: ")+fmt.Sprintf(format, args...))
}

// Errorf prints an error.
func (n *Notifier) Errorf(format string, args ...any) {
	fmt.Fprintln(n.ErrOut, n.fail.Sprint("error: ")+fmt.Sprintf(format, args...))
}
