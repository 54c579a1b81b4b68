package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/config"
	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/forge"
	"github.com/ariel-frischer/k-releaser/internal/git"
	"github.com/ariel-frischer/k-releaser/internal/release"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

// now dates new changelog sections and names release branches.
var now = time.Now

const (
	previousTagPlaceholder = "{previous_tag}"
	tagPlaceholder         = "{tag}"
)

// workspace is an opened repository with its configuration.
type workspace struct {
	cfg      *config.Configuration
	repo     *git.Repo
	packages []config.Package
}

// packagePlan is the release decision for one package.
type packagePlan struct {
	pkg config.Package
	// result is nil when the package has nothing to release.
	result *release.Result
}

// openWorkspace opens the repository at --repo and loads its configuration.
func openWorkspace() (*workspace, error) {
	repo, err := git.Open(repoPath)
	if err != nil {
		return nil, clierrors.GitNotRepository(displayRepoPath(), err)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		Root:       repo.Root(),
		ConfigPath: configPath,
	})
	if err != nil {
		return nil, clierrors.ConfigInvalid(err)
	}
	if cfg.Source != "" {
		debugf("loaded config %s", cfg.Source)
	} else {
		debugf("no project config found, using defaults")
	}

	return &workspace{
		cfg:      cfg,
		repo:     repo,
		packages: cfg.ResolvedPackages(filepath.Base(repo.Root())),
	}, nil
}

// displayRepoPath is --repo for messages.
func displayRepoPath() string {
	if repoPath == "" {
		return "."
	}
	return repoPath
}

// path resolves a repository relative path.
func (w *workspace) path(rel string) string {
	return filepath.Join(w.repo.Root(), rel)
}

// synthesizer builds the release synthesizer from the configuration.
func (w *workspace) synthesizer() (*release.Synthesizer, error) {
	renderer, err := changelog.NewMarkdownRenderer(w.cfg.MarkdownOptions())
	if err != nil {
		return nil, clierrors.ConfigInvalid(err)
	}
	initial, err := version.Parse(w.cfg.Workspace.InitialVersion)
	if err != nil {
		return nil, clierrors.ConfigInvalid(err)
	}
	return &release.Synthesizer{
		Policy:         w.cfg.Policy(),
		Renderer:       renderer,
		InitialVersion: initial,
		Now:            now,
	}, nil
}

// plan decides the next release of every package.
func (w *workspace) plan(ctx context.Context) ([]packagePlan, error) {
	synth, err := w.synthesizer()
	if err != nil {
		return nil, err
	}

	plans := make([]packagePlan, len(w.packages))
	inputs := make([]release.Input, len(w.packages))
	for i, pkg := range w.packages {
		in, err := w.input(pkg)
		if err != nil {
			return nil, err
		}
		plans[i] = packagePlan{pkg: pkg}
		inputs[i] = in
	}

	outcomes, err := synth.SynthesizeAll(ctx, inputs)
	if err != nil {
		if changelog.IsMalformed(err) {
			return nil, clierrors.MalformedChangelog(err)
		}
		return nil, err
	}
	for i, o := range outcomes {
		plans[i].result = o.Result
	}
	return plans, nil
}

// input collects the history and changelog of one package.
func (w *workspace) input(pkg config.Package) (release.Input, error) {
	last, err := w.repo.LatestRelease(pkg.GitTagName, pkg.Name)
	if err != nil {
		return release.Input{}, fmt.Errorf("package %s: %w", pkg.Name, err)
	}

	in := release.Input{Package: pkg.Name}
	if last != nil {
		in.LastVersion = last.Version
		in.LastBoundary = last.Commit
		debugf("%s: last release %s at %s", pkg.Name, last.Name, last.Commit)
	}

	commits, err := w.repo.CommitsSince(in.LastBoundary, []string{pkg.Path})
	if err != nil {
		return release.Input{}, fmt.Errorf("package %s: %w", pkg.Name, err)
	}
	if w.cfg.Workspace.SortCommits == "oldest" {
		slices.Reverse(commits)
	}
	in.Commits = commits
	debugf("%s: %d commits since last release", pkg.Name, len(commits))

	doc, err := changelog.Load(w.path(pkg.ChangelogPath))
	if err != nil {
		if changelog.IsMalformed(err) {
			return release.Input{}, clierrors.MalformedChangelog(err)
		}
		return release.Input{}, fmt.Errorf("package %s: %w", pkg.Name, err)
	}
	in.Changelog = doc
	in.ReleaseLink = w.releaseLink(pkg, last)

	return in, nil
}

// releaseLink expands the release_link template except for the next
// version, which the synthesizer fills in. A link that needs the previous
// tag is omitted on a first release.
func (w *workspace) releaseLink(pkg config.Package, last *git.Tag) string {
	link := w.cfg.Workspace.ReleaseLink
	if link == "" {
		return ""
	}
	if strings.Contains(link, previousTagPlaceholder) {
		if last == nil {
			return ""
		}
		link = strings.ReplaceAll(link, previousTagPlaceholder, last.Name)
	}
	next := git.TagName(pkg.GitTagName, pkg.Name, release.VersionPlaceholder)
	return strings.ReplaceAll(link, tagPlaceholder, next)
}

// releasable drops the packages with nothing to release.
func releasable(plans []packagePlan) []packagePlan {
	var out []packagePlan
	for _, p := range plans {
		if p.result != nil {
			out = append(out, p)
		}
	}
	return out
}

// tagFor returns the tag a plan will be released under.
func (p packagePlan) tagFor() string {
	return git.TagName(p.pkg.GitTagName, p.pkg.Name, p.result.Next.String())
}

// previous returns the last released version, empty on a first release.
func (p packagePlan) previous() string {
	if p.result == nil || p.result.Previous == nil {
		return ""
	}
	return p.result.Previous.String()
}

// forge connects to the forge of the configured remote and hands its token
// to git for HTTPS pushes.
func (w *workspace) forge() (forge.Forge, error) {
	var remote git.Remote
	url, err := w.repo.RemoteURL(w.cfg.Workspace.Remote)
	if err == nil {
		remote, err = git.ParseRemote(url)
	}
	if err != nil {
		if w.cfg.Forge.Owner == "" || w.cfg.Forge.Repo == "" {
			return nil, clierrors.ForgeUnavailable(err)
		}
		debugf("remote %s not recognized (%v), using forge.owner and forge.repo", w.cfg.Workspace.Remote, err)
		remote = git.Remote{}
	}

	f, err := forge.New(w.cfg.Forge, remote)
	if err != nil {
		return nil, clierrors.ForgeUnavailable(err)
	}
	w.repo.Token = w.cfg.Forge.TokenFor(string(f.Kind()))
	return f, nil
}
