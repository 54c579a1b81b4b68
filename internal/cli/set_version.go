package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/config"
	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/git"
	"github.com/ariel-frischer/k-releaser/internal/output"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

// versionChange is one parsed set-version argument.
type versionChange struct {
	pkg     config.Package
	version *semver.Version
}

// versionEdit is a changelog rewritten for a versionChange.
type versionEdit struct {
	pkg      config.Package
	from, to string
	doc      *changelog.Document
}

var setVersionCmd = &cobra.Command{
	Use:   "set-version [<package>@]<version>...",
	Short: "Change the version of the pending release",
	Long: `Rename the unreleased section at the top of a package's changelog to the
given version, overriding the version computed from commits. The next
'k-releaser release' tags the new version.

A single project may pass a bare version. With several packages, name
each one as <package>@<version>.

Examples:
  k-releaser set-version 2.0.0                 # Single package
  k-releaser set-version core@1.4.0 cli@2.0.0  # Several packages`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetVersion(cmd, args)
	},
}

func init() {
	setVersionCmd.GroupID = GroupRelease
	rootCmd.AddCommand(setVersionCmd)
}

func runSetVersion(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	changes, err := parseVersionChanges(args, ws.packages)
	if err != nil {
		return err
	}

	// Every change is checked before any file is written.
	edits := make([]versionEdit, 0, len(changes))
	for _, c := range changes {
		edit, err := ws.versionEdit(c)
		if err != nil {
			return err
		}
		edits = append(edits, edit)
	}

	out := cmd.OutOrStdout()
	for _, e := range edits {
		if err := changelog.WriteFile(ws.path(e.pkg.ChangelogPath), e.doc); err != nil {
			return fmt.Errorf("writing %s: %w", e.pkg.ChangelogPath, err)
		}
		output.PrintSuccess(out, fmt.Sprintf("%s: %s -> %s in %s", e.pkg.Name, e.from, e.to, e.pkg.ChangelogPath))
	}
	return nil
}

// parseVersionChanges reads [<package>@]<version> arguments. The bare form
// is only accepted when exactly one package is configured.
func parseVersionChanges(args []string, packages []config.Package) ([]versionChange, error) {
	if len(args) == 1 && !strings.Contains(args[0], "@") {
		if len(packages) != 1 {
			return nil, clierrors.InvalidVersionChange(args[0], "several packages are configured, use <package>@<version>")
		}
		v, err := version.Parse(args[0])
		if err != nil {
			return nil, clierrors.InvalidVersionChange(args[0], "not a major.minor.patch version")
		}
		return []versionChange{{pkg: packages[0], version: v}}, nil
	}

	byName := make(map[string]config.Package, len(packages))
	names := make([]string, 0, len(packages))
	for _, p := range packages {
		byName[p.Name] = p
		names = append(names, p.Name)
	}

	seen := make(map[string]bool, len(args))
	changes := make([]versionChange, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "@")
		if !ok || name == "" || raw == "" {
			return nil, clierrors.InvalidVersionChange(arg, "expected <package>@<version>")
		}
		pkg, ok := byName[name]
		if !ok {
			return nil, clierrors.UnknownPackage(name, names)
		}
		if seen[name] {
			return nil, clierrors.InvalidVersionChange(arg, "package "+name+" is given more than once")
		}
		seen[name] = true

		v, err := version.Parse(raw)
		if err != nil {
			return nil, clierrors.InvalidVersionChange(arg, "not a major.minor.patch version")
		}
		changes = append(changes, versionChange{pkg: pkg, version: v})
	}
	return changes, nil
}

// versionEdit renames the latest changelog section of c.pkg, which must not
// be tagged yet, to c.version.
func (w *workspace) versionEdit(c versionChange) (versionEdit, error) {
	pkg := c.pkg
	doc, err := changelog.Load(w.path(pkg.ChangelogPath))
	if err != nil {
		if changelog.IsMalformed(err) {
			return versionEdit{}, clierrors.MalformedChangelog(err)
		}
		return versionEdit{}, fmt.Errorf("package %s: %w", pkg.Name, err)
	}

	latest, ok := doc.Latest()
	if !ok {
		return versionEdit{}, clierrors.NoPendingRelease(pkg.Name, pkg.ChangelogPath)
	}
	released, err := w.repo.TagExists(git.TagName(pkg.GitTagName, pkg.Name, latest.Version))
	if err != nil {
		return versionEdit{}, err
	}
	if released {
		return versionEdit{}, clierrors.NoPendingRelease(pkg.Name, pkg.ChangelogPath)
	}

	to := c.version.String()
	tag := git.TagName(pkg.GitTagName, pkg.Name, to)
	taken, err := w.repo.TagExists(tag)
	if err != nil {
		return versionEdit{}, err
	}
	if taken {
		return versionEdit{}, clierrors.TagExists(tag)
	}

	updated, err := doc.SetVersion(latest.Version, to)
	if err != nil {
		var exists *changelog.SectionExistsError
		if errors.As(err, &exists) {
			return versionEdit{}, clierrors.Wrap(err, clierrors.Argument, "Pick a version not already in the changelog")
		}
		return versionEdit{}, clierrors.MalformedChangelog(err)
	}
	debugf("%s: %s -> %s", pkg.Name, latest.Version, to)
	return versionEdit{pkg: pkg, from: latest.Version, to: to, doc: updated}, nil
}
