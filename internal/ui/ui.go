// Package ui holds wikictl's terminal output helpers: styled status
// glyphs, plain-text tables, and a line-rewriting progress counter.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorEnabled = termenv.EnvColorProfile() != termenv.Ascii

	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// RenderAccent styles informational glyphs and labels.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderPass styles success glyphs.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn styles warning glyphs.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderErr styles error text.
func RenderErr(s string) string { return render(errStyle, s) }

// Fatalf prints one diagnostic line to stderr and exits with the tool's
// distinguished failure code.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", RenderErr("Error:"), fmt.Sprintf(format, args...))
	os.Exit(2)
}

// Canceled reports a user-aborted interactive prompt and exits with the
// cancellation code.
func Canceled() {
	fmt.Fprintln(os.Stderr, "\nCanceled")
	os.Exit(1)
}
