package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette styles the parts of a printed error.
type palette struct {
	label, category, message, heading, usage, bullet func(a ...any) string
}

var (
	colored = palette{
		label:    color.New(color.FgRed, color.Bold).SprintFunc(),
		category: color.New(color.FgYellow).SprintFunc(),
		message:  color.New(color.FgRed).SprintFunc(),
		heading:  color.New(color.FgGreen, color.Bold).SprintFunc(),
		usage:    color.New(color.FgCyan).SprintFunc(),
		bullet:   color.New(color.FgGreen).SprintFunc(),
	}
	plain = palette{
		label:    fmt.Sprint,
		category: fmt.Sprint,
		message:  fmt.Sprint,
		heading:  fmt.Sprint,
		usage:    fmt.Sprint,
		bullet:   fmt.Sprint,
	}
)

// FormatError renders err for a terminal. fatih/color drops the escape
// codes itself when output is not a terminal or NO_COLOR is set.
func FormatError(err *CLIError) string {
	return render(err, colored)
}

// FormatErrorPlain renders err without color.
func FormatErrorPlain(err *CLIError) string {
	return render(err, plain)
}

// render lays an error out as
//
//	Error [Category]: message
//
//	Usage: ...
//
//	To fix this:
//	  • step
func render(err *CLIError, p palette) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category), p.message(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&b, "\n%s%s\n", p.heading("Usage: "), p.usage(err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&b, "\n%s\n", p.heading("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&b, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return b.String()
}

// FprintError writes err to w. A nil err writes nothing.
func FprintError(w io.Writer, err *CLIError) {
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError renders a plain error under category.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	return FormatError(newError(category, err.Error(), "", nil))
}
