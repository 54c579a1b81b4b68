package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner reports one long-running step. On a TTY it animates a spinner;
// otherwise it prints the step once and its outcome on completion.
type Spinner struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	message string
	spin    *spinner.Spinner
}

// NewSpinner returns a stopped spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	return &Spinner{out: out, caps: caps, symbols: SelectSymbols(caps)}
}

// Start begins the step with the given message.
func (s *Spinner) Start(message string) {
	s.message = message
	if !s.caps.IsTTY {
		fmt.Fprintf(s.out, "%s...\n", message)
		return
	}
	s.spin = spinner.New(spinner.CharSets[s.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(s.out))
	s.spin.Suffix = " " + message
	s.spin.Start()
}

// Success stops the spinner and marks the step done.
func (s *Spinner) Success(message string) {
	s.finish(s.symbols.Checkmark, message)
}

// Fail stops the spinner and marks the step failed.
func (s *Spinner) Fail(message string) {
	s.finish(s.symbols.Failure, message)
}

func (s *Spinner) finish(symbol, message string) {
	if message == "" {
		message = s.message
	}
	if s.spin != nil {
		s.spin.Stop()
		s.spin = nil
	}
	fmt.Fprintf(s.out, "%s %s\n", symbol, message)
}

// Run wraps fn in a spinner, marking success or failure by its result.
func Run(out io.Writer, caps TerminalCapabilities, message string, fn func() error) error {
	s := NewSpinner(out, caps)
	s.Start(message)
	if err := fn(); err != nil {
		s.Fail(message)
		return err
	}
	s.Success(message)
	return nil
}
