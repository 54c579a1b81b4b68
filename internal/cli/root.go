// Package cli implements the k-releaser command line: release planning,
// changelog updates, release pull requests and publishing.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/forge"
	"github.com/ariel-frischer/k-releaser/internal/git"
)

// Command groups shown in help output.
const (
	GroupGettingStarted = "getting-started"
	GroupRelease        = "release"
	GroupConfiguration  = "configuration"
)

var (
	configPath string
	repoPath   string
	debugMode  bool
)

// debugf writes CLI debug logs; replaced by setupDebugLogging.
var debugf = func(string, ...any) {}

var rootCmd = &cobra.Command{
	Use:   "k-releaser",
	Short: "Release automation driven by conventional commits",
	Long: `k-releaser computes the next version of each package from its
conventional commits, writes the changelog, opens a release pull request
and publishes tags and forge releases once it is merged.`,
	Example: `  # Preview the next versions
  k-releaser next

  # Open or refresh the release pull request
  k-releaser release-pr

  # After the release PR is merged: tag and publish
  k-releaser release`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupDebugLogging(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(GroupGettingStarted)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: k-releaser.toml in the repository root)")
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "", "Path inside the git repository (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Print git and forge debug logs to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})
}

// Execute runs the root command and reports its error on stderr.
// Use ExitCode on the returned error to pick the process exit status.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// printError reports err unless it only carries an exit code.
func printError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprint(w, clierrors.FormatSimpleError(err, clierrors.Runtime))
}

// setupDebugLogging routes git and forge debug messages to w when --debug is set.
func setupDebugLogging(w io.Writer) {
	if !debugMode {
		git.SetDebugLogger(nil)
		forge.SetDebugLogger(nil)
		debugf = func(string, ...any) {}
		return
	}

	logger := func(format string, args ...any) {
		fmt.Fprintf(w, "[DEBUG] "+format+"\n", args...)
	}
	git.SetDebugLogger(logger)
	forge.SetDebugLogger(logger)
	debugf = func(format string, args ...any) {
		logger("[cli] "+format, args...)
	}
}
