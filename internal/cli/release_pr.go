package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/forge"
	"github.com/ariel-frischer/k-releaser/internal/output"
	"github.com/ariel-frischer/k-releaser/internal/progress"
)

var releasePRDryRunFlag bool

var releasePRCmd = &cobra.Command{
	Use:   "release-pr",
	Short: "Open or refresh the release pull request",
	Long: `Write the next release into each changelog on a fresh release branch,
push it and open a pull request against the base branch. When a release
pull request is already open, its branch is replaced and its title and
body are refreshed instead.

Merging the pull request and running 'k-releaser release' publishes it.

Examples:
  k-releaser release-pr            # Open or update the release PR
  k-releaser release-pr --dry-run  # Print the PR title and body`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReleasePR(cmd)
	},
}

func init() {
	releasePRCmd.GroupID = GroupRelease
	rootCmd.AddCommand(releasePRCmd)

	releasePRCmd.Flags().BoolVar(&releasePRDryRunFlag, "dry-run", false, "Print the pull request without pushing or calling the forge")
}

func runReleasePR(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	plans, err := ws.plan(ctx)
	if err != nil {
		return err
	}

	pending := releasable(plans)
	if len(pending) == 0 {
		fmt.Fprintln(out, "nothing to release")
		return nil
	}

	title, body, err := forge.RenderPullRequest(ws.pullRequestPlan(pending), ws.cfg.Workspace.PRTitle, ws.cfg.Workspace.PRBody)
	if err != nil {
		return clierrors.ConfigInvalid(err)
	}

	if releasePRDryRunFlag {
		output.PrintDryRun(out, "would open release PR: "+title)
		fmt.Fprintln(out, body)
		return nil
	}

	base, err := ws.baseBranch()
	if err != nil {
		return err
	}
	f, err := ws.forge()
	if err != nil {
		return err
	}

	prefix := ws.cfg.Workspace.PRBranchPrefix
	existing, err := f.FindPullRequest(ctx, prefix)
	if err != nil {
		return fmt.Errorf("looking up release PR: %w", err)
	}
	branch := forge.ReleaseBranch(prefix, now())
	if existing != nil {
		branch = existing.Branch
		debugf("reusing branch %s of PR #%d", branch, existing.Number)
	}

	caps := progress.DetectTerminalCapabilities()
	err = progress.Run(out, caps, "Pushing "+branch, func() error {
		return ws.pushReleaseBranch(ctx, branch, base, pending, title)
	})
	if err != nil {
		return err
	}

	in := forge.PullRequestInput{
		Title:  title,
		Body:   body,
		Head:   branch,
		Base:   base,
		Draft:  ws.cfg.Workspace.PRDraft,
		Labels: ws.cfg.Workspace.PRLabels,
	}
	if existing != nil {
		if err := f.UpdatePullRequest(ctx, existing.Number, in); err != nil {
			return fmt.Errorf("updating release PR #%d: %w", existing.Number, err)
		}
		output.PrintSuccess(out, fmt.Sprintf("updated release PR #%d: %s", existing.Number, existing.URL))
		return nil
	}

	pr, err := f.CreatePullRequest(ctx, in)
	if err != nil {
		return fmt.Errorf("opening release PR: %w", err)
	}
	output.PrintSuccess(out, fmt.Sprintf("opened release PR #%d: %s", pr.Number, pr.URL))
	return nil
}

// pullRequestPlan describes the pending releases for the PR templates.
func (w *workspace) pullRequestPlan(pending []packagePlan) forge.PullRequestPlan {
	plan := forge.PullRequestPlan{MultiPackage: w.cfg.IsMultiPackage()}
	for _, p := range pending {
		section := changelog.RawSection{Version: p.result.Next.String(), Text: p.result.SectionText}
		plan.Releases = append(plan.Releases, forge.PackageRelease{
			Package:   p.pkg.Name,
			Previous:  p.previous(),
			Next:      p.result.Next.String(),
			Title:     strings.TrimPrefix(changelog.FormatHeading(p.result.Section), "## "),
			Changelog: section.Body(),
		})
	}
	return plan
}

// baseBranch is the configured PR target or the checked out branch.
func (w *workspace) baseBranch() (string, error) {
	if w.cfg.Workspace.BaseBranch != "" {
		return w.cfg.Workspace.BaseBranch, nil
	}
	branch, err := w.repo.CurrentBranch()
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", clierrors.DetachedHead()
	}
	return branch, nil
}

// pushReleaseBranch commits the updated changelogs to branch and pushes it,
// then returns to the branch that was checked out before. When the commit
// is not made, the changelog edits are discarded so the checkout back
// starts from a clean tree.
func (w *workspace) pushReleaseBranch(ctx context.Context, branch, base string, pending []packagePlan, message string) (err error) {
	original, err := w.repo.CurrentBranch()
	if err != nil {
		return err
	}
	if original == "" {
		original = base
	}

	if err := w.repo.CreateBranch(branch); err != nil {
		return err
	}

	var written []string
	committed := false
	defer func() {
		if err != nil && !committed && len(written) > 0 {
			if restoreErr := w.repo.RestoreFiles(written); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("discarding changelog edits: %w", restoreErr))
			}
		}
		if checkoutErr := w.repo.Checkout(original); checkoutErr != nil {
			err = errors.Join(err, fmt.Errorf("returning to %s: %w", original, checkoutErr))
		}
	}()

	for _, p := range pending {
		if err := changelog.WriteFile(w.path(p.pkg.ChangelogPath), p.result.Changelog); err != nil {
			return fmt.Errorf("writing %s: %w", p.pkg.ChangelogPath, err)
		}
		written = append(written, filepath.ToSlash(p.pkg.ChangelogPath))
	}

	hash, err := w.repo.CommitFiles(written, message)
	if err != nil {
		return err
	}
	committed = true
	debugf("committed %s on %s", hash, branch)

	return w.repo.PushBranch(ctx, w.cfg.Workspace.Remote, branch)
}
