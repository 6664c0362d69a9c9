package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Symbol-prefixed status lines. These are the user-facing vocabulary of
// the lifecycle commands: success, warning, failure, and neutral info.
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Success prints a green check-marked line.
func Success(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "%s\t%s\n", successStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line for benign but notable conditions.
func Warn(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "%s\t%s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

// Fail prints a red cross-marked line. The caller still decides whether
// the condition is fatal.
func Fail(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "%s\t%s\n", failStyle.Render("✗"), fmt.Sprintf(format, args...))
}

// Info prints a neutral informational line.
func Info(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "→\t%s\n", fmt.Sprintf(format, args...))
}

// Step announces a long-running blocking operation before it starts, so
// the user knows why the terminal is quiet.
func Step(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(out, "%s\n", fmt.Sprintf(format, args...))
}
