package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ariel-frischer/k-releaser/internal/conventional"
)

// GroupStyle defines the color and icon for a changelog group.
type GroupStyle struct {
	Color *color.Color
	Icon  string
}

// kindStyles maps commit kinds to their terminal styling.
var kindStyles = map[conventional.Kind]GroupStyle{
	conventional.Feat:     {Color: color.New(color.FgGreen), Icon: "✓"},
	conventional.Fix:      {Color: color.New(color.FgYellow), Icon: "⚡"},
	conventional.Perf:     {Color: color.New(color.FgCyan), Icon: "»"},
	conventional.Refactor: {Color: color.New(color.FgBlue), Icon: "~"},
	conventional.Revert:   {Color: color.New(color.FgMagenta), Icon: "↺"},
}

var (
	breakingStyle = GroupStyle{Color: color.New(color.FgRed, color.Bold), Icon: "⚠"}
	defaultStyle  = GroupStyle{Color: color.New(color.Faint), Icon: "•"}
)

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatSection writes a section to the writer with terminal styling.
// Groups are color-coded by the kind of their first entry.
func FormatSection(s Section, w io.Writer, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeSectionHeader(s, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, g := range s.Groups {
		if err := writeGroup(g, w, opts, width); err != nil {
			return fmt.Errorf("formatting group %s: %w", g.Label, err)
		}
	}

	return nil
}

// styleFor picks the style of a group.
func styleFor(g Group) GroupStyle {
	if g.Label == BreakingLabel {
		return breakingStyle
	}
	if len(g.Entries) > 0 {
		if style, ok := kindStyles[g.Entries[0].Kind]; ok {
			return style
		}
	}
	return defaultStyle
}

// writeSectionHeader writes the version header line.
func writeSectionHeader(s Section, w io.Writer, opts FormatOptions) error {
	var header string
	switch {
	case s.Version == Unreleased:
		header = Unreleased
	case !s.Date.IsZero():
		header = fmt.Sprintf("v%s (%s)", s.Version, s.Date.Format("2006-01-02"))
	default:
		header = fmt.Sprintf("v%s", s.Version)
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(header))
	return err
}

// writeGroup writes a single group with its entries.
func writeGroup(g Group, w io.Writer, opts FormatOptions, width int) error {
	style := styleFor(g)

	if opts.Plain {
		if _, err := fmt.Fprintf(w, "\n### %s\n", g.Label); err != nil {
			return err
		}
	} else {
		colored := style.Color.SprintFunc()
		if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(g.Label)); err != nil {
			return err
		}
	}

	for _, e := range g.Entries {
		if err := writeEntry(e, style, w, opts, width); err != nil {
			return err
		}
	}

	return nil
}

// writeEntry writes a single entry with optional wrapping.
func writeEntry(e Entry, style GroupStyle, w io.Writer, opts FormatOptions, width int) error {
	prefix := "  - "
	text := e.Description
	if e.Scope != "" {
		text = e.Scope + ": " + text
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s\n", prefix, text)
		return err
	}

	wrapped := wrapText(text, width-len(prefix), "    ")
	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, colored(wrapped))
	return err
}

const defaultWidth = 80

// resolveWidth is maxWidth, or the width of stdout when that is unset.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// wrapText breaks text between words into lines of at most maxWidth bytes,
// prefixing continuation lines with indent. A word longer than maxWidth
// stays whole on its own line.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(text) {
		switch {
		case lineLen == 0:
		case lineLen+1+len(word) > maxWidth:
			b.WriteString("\n" + indent)
			lineLen = 0
		default:
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
