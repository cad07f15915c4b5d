package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/matzehuels/deprule/internal/config"
	"github.com/matzehuels/deprule/pkg/format"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - violations and errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// =============================================================================
// Violation Highlight
// =============================================================================

// highlighter returns the function that marks a forbidden dependency in
// the tree written to w.
//
// With color "never", or "auto" on a writer without color support, the
// package is followed by a textual marker so the violation stays visible
// in logs and pipes. Otherwise it is drawn in reverse video.
func highlighter(w io.Writer, color string) func(string) string {
	r := lipgloss.NewRenderer(w)
	switch color {
	case config.ColorNever:
		return format.MarkerHighlight
	case config.ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	default:
		if r.ColorProfile() == termenv.Ascii {
			return format.MarkerHighlight
		}
	}
	style := r.NewStyle().Reverse(true).Foreground(colorRed)
	return func(s string) string { return style.Render(s) }
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

func printFailure(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printDetail prints an indented, muted line.
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printSummary prints the outcome of a check on a single line.
func printSummary(w io.Writer, roots, violations int) {
	counts := StyleNumber.Render(fmt.Sprint(roots)) + StyleDim.Render(" roots · ") +
		StyleNumber.Render(fmt.Sprint(violations)) + StyleDim.Render(" violations")
	if violations == 0 {
		printSuccess(w, "no forbidden dependencies  %s", counts)
		return
	}
	printFailure(w, "%s  %s", ErrViolation, counts)
}
