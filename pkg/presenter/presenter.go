// Package presenter provides consistent user-facing CLI output with
// color support and a quiet mode. Diagnostic logging goes through the
// logger package; presenter output is what the user asked for.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode controls whether output is colorized.
type ColorMode int

const (
	// ColorAuto enables color when stdout is a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways forces color on.
	ColorAlways
	// ColorNever forces color off.
	ColorNever
)

// Presenter writes user-facing messages.
type Presenter struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// New returns a Presenter writing to stdout/stderr with color mode
// detected from the environment.
func New() *Presenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions returns a Presenter with explicit outputs and color mode.
func NewWithOptions(out, errOut io.Writer, mode ColorMode) *Presenter {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Presenter{out: out, errOut: errOut}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("SKILLHUB_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	// ColorAuto defers to the color package's own terminal detection.
	return ColorAuto
}

// SetQuiet suppresses informational output. Errors are always printed.
func (p *Presenter) SetQuiet(quiet bool) { p.quiet = quiet }

// IsQuiet reports whether quiet mode is active.
func (p *Presenter) IsQuiet() bool { return p.quiet }

// Error prints an error with optional context. Never suppressed.
func (p *Presenter) Error(err error, context string) {
	red := color.New(color.FgRed).SprintFunc()
	if context != "" {
		fmt.Fprintf(p.errOut, "%s %s: %v\n", red("Error:"), context, err)
		return
	}
	fmt.Fprintf(p.errOut, "%s %v\n", red("Error:"), err)
}

// Success prints a success message.
func (p *Presenter) Success(message string) {
	if p.quiet {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(p.out, "%s %s\n", green("✓"), message)
}

// Warning prints a warning message.
func (p *Presenter) Warning(message string) {
	if p.quiet {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(p.out, "%s %s\n", yellow("Warning:"), message)
}

// Info prints an informational message.
func (p *Presenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, message)
}

// Section prints a section header.
func (p *Presenter) Section(title string) {
	if p.quiet {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(p.out, "\n%s\n%s\n", bold(title), strings.Repeat("-", len(title)))
}

// Separator prints a horizontal rule.
func (p *Presenter) Separator() {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
}

var defaultPresenter = New()

// Error prints via the default presenter.
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success prints via the default presenter.
func Success(message string) { defaultPresenter.Success(message) }

// Warning prints via the default presenter.
func Warning(message string) { defaultPresenter.Warning(message) }

// Info prints via the default presenter.
func Info(message string) { defaultPresenter.Info(message) }

// Section prints via the default presenter.
func Section(title string) { defaultPresenter.Section(title) }

// Separator prints via the default presenter.
func Separator() { defaultPresenter.Separator() }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
