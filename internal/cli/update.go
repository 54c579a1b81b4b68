package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/output"
)

var updateDryRunFlag bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Write the next release into each changelog",
	Long: `Insert the next release section into the changelog of every package
that has something to release. No commit, tag or push is made.

Examples:
  k-releaser update            # Update CHANGELOG.md files
  k-releaser update --dry-run  # Print the sections instead`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd)
	},
}

func init() {
	updateCmd.GroupID = GroupRelease
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateDryRunFlag, "dry-run", false, "Print the changes without writing files")
}

func runUpdate(cmd *cobra.Command) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	plans, err := ws.plan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pending := releasable(plans)
	if len(pending) == 0 {
		fmt.Fprintln(out, "nothing to release")
		return nil
	}

	for _, p := range pending {
		if updateDryRunFlag {
			output.PrintDryRun(out, fmt.Sprintf("would update %s (%s)", p.pkg.ChangelogPath, p.result.Next))
			fmt.Fprintln(out, p.result.SectionText)
			continue
		}
		if err := changelog.WriteFile(ws.path(p.pkg.ChangelogPath), p.result.Changelog); err != nil {
			return fmt.Errorf("writing %s: %w", p.pkg.ChangelogPath, err)
		}
		output.PrintSuccess(out, fmt.Sprintf("%s: updated %s (%s)", p.pkg.Name, p.pkg.ChangelogPath, p.result.Next))
	}
	return nil
}
