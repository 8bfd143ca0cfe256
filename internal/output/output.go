// Package output provides consistent CLI output formatting for search
// results and status messages.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI color codes used when the destination is a terminal.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorDim    = "\033[2m"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a Writer. Color is enabled only when out is a terminal.
func New(out io.Writer) *Writer {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: out, useColor: useColor}
}

// NewPlain creates a Writer with color forced off, for tests and pipes.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) paint(color, s string) string {
	if !w.useColor {
		return s
	}
	return color + s + colorReset
}

// Printf writes a formatted line. Write errors are ignored for console
// output.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...any) {
	w.Printf("%s", w.paint(colorGreen, fmt.Sprintf(format, args...)))
}

// Warning prints a warning message.
func (w *Writer) Warning(format string, args ...any) {
	w.Printf("%s", w.paint(colorYellow, fmt.Sprintf(format, args...)))
}

// Error prints an error message.
func (w *Writer) Error(format string, args ...any) {
	w.Printf("%s", w.paint(colorRed, fmt.Sprintf(format, args...)))
}

// Heading prints a bold section heading.
func (w *Writer) Heading(format string, args ...any) {
	w.Printf("%s", w.paint(colorBold, fmt.Sprintf(format, args...)))
}

// Detail prints a dimmed secondary line.
func (w *Writer) Detail(format string, args ...any) {
	w.Printf("%s", w.paint(colorDim, fmt.Sprintf(format, args...)))
}

// Code prints an indented code block.
func (w *Writer) Code(content string) {
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		w.Printf("    %s", line)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
