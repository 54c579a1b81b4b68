package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/config"
	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/forge"
	"github.com/ariel-frischer/k-releaser/internal/git"
	"github.com/ariel-frischer/k-releaser/internal/output"
	"github.com/ariel-frischer/k-releaser/internal/progress"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

var (
	releaseDryRunFlag bool
	releaseFetchFlag  bool
)

// pendingRelease is a changelog section whose tag does not exist yet.
type pendingRelease struct {
	pkg     config.Package
	section changelog.RawSection
	tag     string
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Tag and publish the latest changelog release of each package",
	Long: `Publish every package whose latest changelog section has no tag yet:
create the tag, push it and create a forge release with the section as
its notes. Run it after the release pull request is merged.

Examples:
  k-releaser release            # Tag, push and publish
  k-releaser release --fetch    # Fetch remote tags first
  k-releaser release --dry-run  # Show what would be published`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelease(cmd)
	},
}

func init() {
	releaseCmd.GroupID = GroupRelease
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().BoolVar(&releaseDryRunFlag, "dry-run", false, "Show the releases without tagging or calling the forge")
	releaseCmd.Flags().BoolVar(&releaseFetchFlag, "fetch", false, "Fetch tags from the remote before checking for existing releases")
}

func runRelease(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	caps := progress.DetectTerminalCapabilities()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	var f forge.Forge
	if !releaseDryRunFlag {
		if f, err = ws.forge(); err != nil {
			return err
		}
	}

	if releaseFetchFlag {
		err := progress.Run(out, caps, "Fetching tags", func() error {
			return ws.repo.FetchTags(ctx, ws.cfg.Workspace.Remote)
		})
		if err != nil {
			return err
		}
	}

	pending, err := ws.pendingReleases(cmd)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "nothing to release")
		return nil
	}

	for _, p := range pending {
		if releaseDryRunFlag {
			output.PrintDryRun(out, fmt.Sprintf("would tag, push and publish %s", p.tag))
			continue
		}

		err := progress.Run(out, caps, "Pushing tag "+p.tag, func() error {
			if err := ws.repo.CreateTag(p.tag, "chore: release "+p.tag); err != nil {
				return err
			}
			return ws.repo.PushTag(ctx, ws.cfg.Workspace.Remote, p.tag)
		})
		if err != nil {
			return err
		}

		rel, err := f.CreateRelease(ctx, forge.ReleaseInput{
			TagName:    p.tag,
			Name:       p.tag,
			Body:       p.section.Body(),
			Draft:      ws.cfg.Workspace.ReleaseDraft,
			Prerelease: isPrerelease(p.section.Version),
		})
		if err != nil {
			return fmt.Errorf("publishing release %s: %w", p.tag, err)
		}
		output.PrintSuccess(out, fmt.Sprintf("released %s: %s", p.tag, rel.URL))
	}
	return nil
}

// pendingReleases finds the packages whose latest changelog section is untagged.
func (w *workspace) pendingReleases(cmd *cobra.Command) ([]pendingRelease, error) {
	var pending []pendingRelease
	for _, pkg := range w.packages {
		doc, err := changelog.Load(w.path(pkg.ChangelogPath))
		if err != nil {
			if changelog.IsMalformed(err) {
				return nil, clierrors.MalformedChangelog(err)
			}
			return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
		}

		latest, ok := doc.Latest()
		if !ok {
			debugf("%s: no release in %s", pkg.Name, pkg.ChangelogPath)
			continue
		}

		tag := git.TagName(pkg.GitTagName, pkg.Name, latest.Version)
		exists, err := w.repo.TagExists(tag)
		if err != nil {
			return nil, err
		}
		if exists {
			if w.cfg.IsMultiPackage() {
				output.PrintSkipped(cmd.OutOrStdout(), fmt.Sprintf("%s: %s already released", pkg.Name, tag))
			}
			continue
		}
		pending = append(pending, pendingRelease{pkg: pkg, section: latest, tag: tag})
	}
	return pending, nil
}

// isPrerelease reports whether a changelog version has a prerelease part.
func isPrerelease(raw string) bool {
	v, err := version.Parse(raw)
	return err == nil && v.Prerelease() != ""
}
