// Package output provides terminal output formatting utilities for the
// k-releaser CLI. This package is designed to have minimal dependencies to
// avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintHeader prints a colored section header such as "Release plan".
// Uses a dim rule under a bold cyan title.
func PrintHeader(out io.Writer, title string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	width := len(title) + 4
	if limit := GetTerminalWidth(); width > limit {
		width = limit
	}
	fmt.Fprintf(out, "%s\n%s\n", cyan(title), dim(strings.Repeat("─", width)))
}

// PrintSuccess prints a green checkmark followed by message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintSkipped prints a dim line for a package or step that was skipped.
func PrintSkipped(out io.Writer, message string) {
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", dim("-"), dim(message))
}

// PrintTransition prints "name: from -> to (detail)" with the versions
// highlighted. An empty from prints only the target version.
func PrintTransition(out io.Writer, name, from, to, detail string) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	versions := green(to)
	if from != "" {
		versions = yellow(from) + " -> " + green(to)
	}
	if detail != "" {
		versions += " (" + detail + ")"
	}
	fmt.Fprintf(out, "%s: %s\n", bold(name), versions)
}

// PrintDryRun prints a magenta marker for an action that was not performed.
func PrintDryRun(out io.Writer, message string) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", magenta("[dry-run]"), message)
}
