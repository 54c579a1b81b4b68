// Package progress shows spinners and status symbols for long-running forge
// and git operations. Output degrades to plain lines when stdout is not a
// terminal.
package progress

import (
	"os"

	"golang.org/x/term"
)

// Indexes into spinner.CharSets.
const (
	brailleSpinner = 14
	asciiSpinner   = 9
)

var (
	unicodeSymbols = ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: brailleSpinner}
	asciiSymbols   = ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: asciiSpinner}
)

// DetectTerminalCapabilities inspects stdout. NO_COLOR disables color and
// K_RELEASER_ASCII=1 forces ASCII symbols.
func DetectTerminalCapabilities() TerminalCapabilities {
	fd := int(os.Stdout.Fd())
	caps := TerminalCapabilities{IsTTY: term.IsTerminal(fd)}
	if !caps.IsTTY {
		return caps
	}

	caps.SupportsColor = os.Getenv("NO_COLOR") == ""
	caps.SupportsUnicode = os.Getenv("K_RELEASER_ASCII") != "1"
	if w, _, err := term.GetSize(fd); err == nil {
		caps.Width = w
	}
	return caps
}

// SelectSymbols picks Unicode or ASCII status symbols for caps.
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return unicodeSymbols
	}
	return asciiSymbols
}
