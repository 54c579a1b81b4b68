package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the k-releaser CLI.
// These templates ensure consistent, actionable error messages.

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("not a git repository: %s", path),
		"Run k-releaser from inside a git working tree",
		"Or point at one with: k-releaser --repo <path>",
	)
}

// ConfigInvalid creates an error for a config file that fails to load or validate.
func ConfigInvalid(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Check k-releaser.toml against: k-releaser generate-schema",
		"Reset to defaults with: k-releaser init --force",
	)
}

// ConfigExists creates an error when init would overwrite a config file.
func ConfigExists(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file already exists: %s", path),
		"Use --force to overwrite it with the defaults",
	)
}

// ForgeUnavailable creates an error when no forge client can be built.
func ForgeUnavailable(err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		"cannot connect to the git forge",
		"Export a token: K_RELEASER_FORGE_TOKEN, GITHUB_TOKEN, GITLAB_TOKEN or GITEA_TOKEN",
		"Set [forge] type, url, owner and repo in k-releaser.toml for self-hosted forges",
	)
}

// MalformedChangelog creates an error for a changelog that cannot be updated safely.
// The structural reason is reported verbatim.
func MalformedChangelog(err error) *CLIError {
	return Wrap(err, Runtime,
		"Fix the changelog by hand: every release heading must follow the '# Changelog' title",
	)
}

// DetachedHead creates an error when a branch is required but HEAD is detached.
func DetachedHead() *CLIError {
	return NewPrerequisiteError(
		"HEAD is detached",
		"Check out the branch the release PR should target",
		"Or set workspace.base_branch in k-releaser.toml",
	)
}

// InvalidOutputFormat creates an error for an unknown --output value.
func InvalidOutputFormat(format string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid output format: %s", format),
		"k-releaser next --output text|json|yaml",
		"Valid formats: text, json, yaml",
	)
}

// InvalidVersionChange creates an error for a set-version argument that is
// not a usable [<package>@]<version>.
func InvalidVersionChange(arg, reason string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid version change %q: %s", arg, reason),
		"k-releaser set-version [<package>@]<version>...",
		"Use a full version such as 2.0.0 or widgets@2.0.0",
	)
}

// UnknownPackage creates an error for a package name missing from the configuration.
func UnknownPackage(name string, known []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown package: %s", name),
		"k-releaser set-version <package>@<version>...",
		"Configured packages: "+strings.Join(known, ", "),
	)
}

// NoPendingRelease creates an error when a package's changelog has no
// section waiting to be released.
func NoPendingRelease(pkg, path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("%s has no unreleased section in %s", pkg, path),
		"Write the next release first: k-releaser update",
	)
}

// TagExists creates an error for a version whose release tag is already taken.
func TagExists(tag string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("tag %s already exists", tag),
		"k-releaser set-version [<package>@]<version>...",
		"Pick a version that has not been released yet",
	)
}
