package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/output"
)

var changelogPlainFlag bool

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Preview the changelog sections of the next release",
	Long: `Preview the changelog section each package would get in its next
release. Nothing is written; use 'k-releaser update' to write the files.

Examples:
  k-releaser changelog          # Styled terminal preview
  k-releaser changelog --plain  # Plain output (no colors/icons)`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangelogPreview(cmd)
	},
}

func init() {
	changelogCmd.GroupID = GroupGettingStarted
	rootCmd.AddCommand(changelogCmd)

	changelogCmd.Flags().BoolVar(&changelogPlainFlag, "plain", false, "Plain text output (no colors/icons)")
}

func runChangelogPreview(cmd *cobra.Command) error {
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

	opts := changelog.FormatOptions{Plain: changelogPlainFlag}
	for i, p := range pending {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if ws.cfg.IsMultiPackage() {
			output.PrintHeader(out, p.pkg.Name)
		}
		if err := changelog.FormatSection(p.result.Section, out, opts); err != nil {
			return fmt.Errorf("formatting %s: %w", p.pkg.Name, err)
		}
	}
	return nil
}
