// Package errors holds the user facing errors of the k-releaser CLI.
// Each error carries a category, which selects the exit code and the label
// printed in front of the message, plus optional usage and fix-it hints.
//
// Library packages return plain wrapped errors. Only the CLI layer turns
// them into a CLIError, usually through one of the helpers in messages.go.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies a CLIError.
type ErrorCategory int

const (
	// Argument is a bad flag, argument or flag value.
	Argument ErrorCategory = iota
	// Configuration is a k-releaser.toml that cannot be loaded or used.
	Configuration
	// Prerequisite is a missing repository, remote, token or forge.
	Prerequisite
	// Runtime is anything that fails while a release is being produced.
	Runtime
)

var categoryLabels = map[ErrorCategory]string{
	Argument:      "Argument Error",
	Configuration: "Configuration Error",
	Prerequisite:  "Prerequisite Error",
	Runtime:       "Runtime Error",
}

func (c ErrorCategory) String() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return "Error"
}

// CLIError is an error meant to be shown to the person running k-releaser.
type CLIError struct {
	Category ErrorCategory
	Message  string
	// Usage is the correct invocation, shown for argument errors.
	Usage string
	// Remediation lists the steps that resolve the error.
	Remediation []string
}

func (e *CLIError) Error() string {
	return e.Message
}

func newError(category ErrorCategory, message, usage string, remediation []string) *CLIError {
	return &CLIError{
		Category:    category,
		Message:     message,
		Usage:       usage,
		Remediation: remediation,
	}
}

// NewArgumentErrorWithUsage reports a bad invocation together with the correct one.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	return newError(Argument, message, usage, remediation)
}

// NewConfigError reports an unusable configuration.
func NewConfigError(message string, remediation ...string) *CLIError {
	return newError(Configuration, message, "", remediation)
}

// NewPrerequisiteError reports something that must exist before k-releaser can run.
func NewPrerequisiteError(message string, remediation ...string) *CLIError {
	return newError(Prerequisite, message, "", remediation)
}

// NewRuntimeError reports a failure during a command.
func NewRuntimeError(message string, remediation ...string) *CLIError {
	return newError(Runtime, message, "", remediation)
}

// Wrap categorizes err, keeping its message. It returns nil for a nil err.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return newError(category, err.Error(), "", remediation)
}

// WrapWithMessage categorizes err under "message: err". It returns nil for a nil err.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return newError(category, fmt.Sprintf("%s: %v", message, err), "", remediation)
}

// AsCLIError returns the first CLIError in the chain of err, or nil.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if !stderrors.As(err, &cliErr) {
		return nil
	}
	return cliErr
}

// IsCLIError reports whether the chain of err holds a CLIError.
func IsCLIError(err error) bool {
	return AsCLIError(err) != nil
}
