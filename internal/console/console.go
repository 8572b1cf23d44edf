// Package console prints user-facing CLI messages.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// SuccessColor for successful operations
	SuccessColor = color.New(color.FgGreen, color.Bold)

	// ErrorColor for error messages
	ErrorColor = color.New(color.FgRed, color.Bold)

	// WarningColor for warning messages
	WarningColor = color.New(color.FgYellow, color.Bold)

	// InfoColor for informational messages
	InfoColor = color.New(color.FgCyan)

	// TitleColor for titles and headers
	TitleColor = color.New(color.FgMagenta, color.Bold)
)

// Printer writes results to Out and diagnostics to Err. Quiet suppresses
// Info and Title output.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

// New returns a Printer bound to stdout and stderr.
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	SuccessColor.Fprintf(p.Err, "✅ "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	ErrorColor.Fprintf(p.Err, "❌ "+format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	WarningColor.Fprintf(p.Err, "⚠️  "+format+"\n", args...)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	if p.Quiet {
		return
	}
	InfoColor.Fprintf(p.Err, "ℹ️  "+format+"\n", args...)
}

// Title prints a title
func (p *Printer) Title(format string, args ...any) {
	if p.Quiet {
		return
	}
	TitleColor.Fprintf(p.Err, "🎯 "+format+"\n", args...)
}

// Separator prints a visual separator
func (p *Printer) Separator() {
	if p.Quiet {
		return
	}
	fmt.Fprintln(p.Err, strings.Repeat("─", 80))
}

// Document writes text to Out unchanged, adding a final newline if missing.
func (p *Printer) Document(text string) {
	fmt.Fprint(p.Out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(p.Out)
	}
}
