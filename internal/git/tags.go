package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/ariel-frischer/k-releaser/internal/version"
)

// Tag template placeholders.
const (
	PackagePlaceholder = "{package}"
	VersionPlaceholder = "{version}"
)

// Tag is a release tag resolved to the commit it marks.
type Tag struct {
	Name    string
	Version *semver.Version
	Commit  string
}

// TagName expands a tag template such as "{package}-v{version}".
func TagName(template, pkg, ver string) string {
	name := strings.ReplaceAll(template, PackagePlaceholder, pkg)
	return strings.ReplaceAll(name, VersionPlaceholder, strings.TrimPrefix(ver, "v"))
}

// tagMatcher compiles a tag template into a pattern capturing the version.
func tagMatcher(template, pkg string) (*regexp.Regexp, error) {
	if !strings.Contains(template, VersionPlaceholder) {
		return nil, fmt.Errorf("tag template %q has no %s placeholder", template, VersionPlaceholder)
	}

	pattern := regexp.QuoteMeta(template)
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(PackagePlaceholder), regexp.QuoteMeta(pkg))
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(VersionPlaceholder), `(.+)`)
	return regexp.Compile("^" + pattern + "$")
}

// LatestRelease returns the highest-versioned tag matching template for pkg,
// or nil when the package has never been tagged. Tags whose version part is
// not valid semver are ignored.
func (r *Repo) LatestRelease(template, pkg string) (*Tag, error) {
	matcher, err := tagMatcher(template, pkg)
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var latest *Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		m := matcher.FindStringSubmatch(name)
		if m == nil {
			return nil
		}

		v, err := version.Parse(m[1])
		if err != nil {
			logDebug("[git] LatestRelease: ignoring tag %s: %v", name, err)
			return nil
		}
		if latest != nil && !v.GreaterThan(latest.Version) {
			return nil
		}

		commit, err := r.peel(ref)
		if err != nil {
			return fmt.Errorf("resolving tag %s: %w", name, err)
		}
		latest = &Tag{Name: name, Version: v, Commit: commit.String()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if latest != nil {
		logDebug("[git] LatestRelease(%s): %s at %s", pkg, latest.Name, latest.Commit)
	}
	return latest, nil
}

// peel resolves a tag reference to its commit hash. Annotated tags point at
// a tag object; lightweight tags point at the commit directly.
func (r *Repo) peel(ref *plumbing.Reference) (plumbing.Hash, error) {
	tag, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}

// TagExists reports whether a tag with the given name exists.
func (r *Repo) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up tag %s: %w", name, err)
	}
	return true, nil
}

// CreateTag creates an annotated tag on HEAD.
func (r *Repo) CreateTag(name, message string) error {
	head, ok, err := r.headHash()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("creating tag %s: repository has no commits", name)
	}
	if message == "" {
		message = name
	}

	_, err = r.repo.CreateTag(name, head, &git.CreateTagOptions{
		Tagger:  r.signature(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}

	logDebug("[git] CreateTag: %s at %s", name, head)
	return nil
}

// PushTag pushes a single tag to the named remote.
func (r *Repo) PushTag(ctx context.Context, remote, name string) error {
	ref := plumbing.NewTagReferenceName(name)
	return r.push(ctx, remote, config.RefSpec(ref+":"+ref))
}
