package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// UI prints user-facing status lines. Logs go through zerolog; these are
// the short ✓/✗ summaries a person running the command reads.
type UI struct {
	out io.Writer
	err io.Writer
}

// NewUI creates a UI writing to out and err.
func NewUI(out, err io.Writer) *UI {
	return &UI{out: out, err: err}
}

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// Success prints a success message.
func (u *UI) Success(format string, args ...any) {
	successColor.Fprintf(u.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (u *UI) Error(format string, args ...any) {
	errorColor.Fprintf(u.err, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (u *UI) Warning(format string, args ...any) {
	warnColor.Fprintf(u.err, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func (u *UI) Info(format string, args ...any) {
	infoColor.Fprintf(u.out, "%s\n", fmt.Sprintf(format, args...))
}

// Plain prints without decoration.
func (u *UI) Plain(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}
