// Package release combines commit classification, version bumping and
// changelog rendering into one decision per package: the next version and
// the changelog document that records it.
package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/conventional"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

// DefaultInitialVersion is the version a package without release tags
// starts from.
const DefaultInitialVersion = "0.1.0"

// VersionPlaceholder in Input.ReleaseLink is replaced with the next version.
const VersionPlaceholder = "{version}"

// ErrNoReleaseNeeded is the terminal outcome for a package whose commits
// justify no version change. It is a successful result, not a failure.
var ErrNoReleaseNeeded = errors.New("no release needed")

// NoReleaseError ties ErrNoReleaseNeeded to the package it was decided for.
type NoReleaseError struct {
	Package string
}

func (e *NoReleaseError) Error() string {
	if e.Package == "" {
		return ErrNoReleaseNeeded.Error()
	}
	return fmt.Sprintf("%s: %s", e.Package, ErrNoReleaseNeeded)
}

// Unwrap makes errors.Is(err, ErrNoReleaseNeeded) hold.
func (e *NoReleaseError) Unwrap() error {
	return ErrNoReleaseNeeded
}

// IsNoRelease reports whether err means nothing needs releasing.
func IsNoRelease(err error) bool {
	return errors.Is(err, ErrNoReleaseNeeded)
}

// Input is everything the synthesizer needs for one package.
type Input struct {
	Package string
	// LastVersion is nil when the package has never been released.
	LastVersion *semver.Version
	// LastBoundary is the commit id of the last release, informational only.
	LastBoundary string
	// Commits are every commit since the last release, newest first.
	Commits []conventional.Commit
	// Changelog is the current document; nil means a fresh one.
	Changelog *changelog.Document
	// ReleaseLink optionally links the section heading, e.g. a compare URL.
	// A {version} placeholder is replaced with the next version.
	ReleaseLink string
}

// Result describes a release that should happen.
type Result struct {
	Package     string
	Previous    *semver.Version
	Next        *semver.Version
	Bump        version.Bump
	Section     changelog.Section
	SectionText string
	// Changelog is a new document with SectionText inserted. The input
	// document is never modified.
	Changelog  *changelog.Document
	Classified []conventional.Classified
}

// Synthesizer turns commit history into a release decision.
// The zero value is usable and applies the default policy and renderer.
type Synthesizer struct {
	Policy         changelog.Policy
	Renderer       changelog.Renderer
	InitialVersion *semver.Version
	// Now supplies the section date; defaults to time.Now.
	Now func() time.Time
}

// Synthesize decides the next release for one package.
//
// A bump of None, which includes an empty commit list, returns a
// *NoReleaseError and no changelog change. Unconventional commits never make
// the call fail; structural changelog errors are returned unchanged.
func (s *Synthesizer) Synthesize(in Input) (*Result, error) {
	classified := conventional.ClassifyAll(in.Commits)
	bump := version.Compute(classified)
	if bump == version.None {
		return nil, &NoReleaseError{Package: in.Package}
	}

	next, err := s.nextVersion(in.LastVersion, bump)
	if err != nil {
		return nil, fmt.Errorf("computing next version for %s: %w", in.Package, err)
	}

	section := changelog.Build(next.String(), s.now(), classified, s.policy())
	section.Link = strings.ReplaceAll(in.ReleaseLink, VersionPlaceholder, next.String())

	renderer, err := s.renderer()
	if err != nil {
		return nil, err
	}
	text, err := renderer.RenderSection(section)
	if err != nil {
		return nil, fmt.Errorf("rendering changelog section for %s: %w", in.Package, err)
	}

	doc := in.Changelog
	if doc == nil {
		if doc, err = changelog.Parse(changelog.DefaultFilename, ""); err != nil {
			return nil, err
		}
	}
	updated, err := doc.Insert(next.String(), text)
	if err != nil {
		return nil, err
	}

	return &Result{
		Package:     in.Package,
		Previous:    in.LastVersion,
		Next:        next,
		Bump:        bump,
		Section:     section,
		SectionText: text,
		Changelog:   updated,
		Classified:  classified,
	}, nil
}

// nextVersion applies bump to last, or seeds the initial version for a
// package that has never been released.
func (s *Synthesizer) nextVersion(last *semver.Version, bump version.Bump) (*semver.Version, error) {
	if last != nil {
		return version.Apply(last, bump)
	}
	if s.InitialVersion != nil {
		return s.InitialVersion, nil
	}
	return version.Parse(DefaultInitialVersion)
}

func (s *Synthesizer) policy() changelog.Policy {
	if len(s.Policy.Rules) == 0 {
		return changelog.DefaultPolicy()
	}
	return s.Policy
}

func (s *Synthesizer) renderer() (changelog.Renderer, error) {
	if s.Renderer != nil {
		return s.Renderer, nil
	}
	return changelog.NewMarkdownRenderer(changelog.MarkdownOptions{})
}

func (s *Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Outcome is the per-package result of SynthesizeAll.
type Outcome struct {
	Package string
	// Result is nil when Skipped is true.
	Result *Result
	// Skipped means the package needs no release.
	Skipped bool
}

// SynthesizeAll runs Synthesize for every input concurrently. Outcomes are
// in input order. The first real error cancels the remaining work and is
// returned; packages with nothing to release are reported as skipped.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, inputs []Input) ([]Outcome, error) {
	outcomes := make([]Outcome, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := s.Synthesize(in)
			switch {
			case IsNoRelease(err):
				outcomes[i] = Outcome{Package: in.Package, Skipped: true}
				return nil
			case err != nil:
				return fmt.Errorf("package %s: %w", in.Package, err)
			}
			outcomes[i] = Outcome{Package: in.Package, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
