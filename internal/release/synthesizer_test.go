package release

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/conventional"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

var releaseDay = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newSynth() *Synthesizer {
	return &Synthesizer{Now: func() time.Time { return releaseDay }}
}

func commits(messages ...string) []conventional.Commit {
	out := make([]conventional.Commit, 0, len(messages))
	for i, m := range messages {
		out = append(out, conventional.Commit{
			ID:      strings.Repeat(string(rune('a'+i)), 40),
			Message: m,
		})
	}
	return out
}

func mustDoc(t *testing.T, text string) *changelog.Document {
	t.Helper()
	doc, err := changelog.Parse("CHANGELOG.md", text)
	require.NoError(t, err)
	return doc
}

func TestSynthesize_FeatureAndFix(t *testing.T) {
	t.Parallel()

	existing := "# Changelog\n\n## [1.2.0] - 2026-01-01\n\n### Features\n- old\n"
	doc := mustDoc(t, existing)

	res, err := newSynth().Synthesize(Input{
		Package:     "core",
		LastVersion: version.MustParse("1.2.0"),
		Commits:     commits("fix: null pointer", "feat: add export flag"),
		Changelog:   doc,
	})
	require.NoError(t, err)

	assert.Equal(t, "1.3.0", res.Next.String())
	assert.Equal(t, "1.2.0", res.Previous.String())
	assert.Equal(t, version.Minor, res.Bump)
	assert.Len(t, res.Classified, 2)

	want := "## [1.3.0] - 2026-10-14\n" +
		"\n### Features\n- add export flag (bbbbbbb)\n" +
		"\n### Bug Fixes\n- null pointer (aaaaaaa)\n"
	assert.Equal(t, want, res.SectionText)

	latest, ok := res.Changelog.Latest()
	require.True(t, ok)
	assert.Equal(t, "1.3.0", latest.Version)
	assert.Equal(t, "# Changelog\n\n"+want+"\n## [1.2.0] - 2026-01-01\n\n### Features\n- old\n", res.Changelog.String())

	// Input document untouched.
	assert.Equal(t, existing, doc.String())
}

func TestSynthesize_BreakingBelowOne(t *testing.T) {
	t.Parallel()

	res, err := newSynth().Synthesize(Input{
		LastVersion: version.MustParse("0.9.0"),
		Commits:     commits("feat!: new config format"),
		Changelog:   mustDoc(t, "# Changelog\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "0.10.0", res.Next.String())
	assert.Equal(t, version.Major, res.Bump)
	assert.Equal(t, []string{changelog.BreakingLabel, "Features"}, groupLabels(res.Section))
	assert.Contains(t, res.SectionText, "### Breaking Changes\n- new config format")
}

func TestSynthesize_NoRelease(t *testing.T) {
	t.Parallel()

	tests := map[string][]conventional.Commit{
		"no commits":          nil,
		"only hidden kinds":   commits("docs: readme", "chore: bump deps"),
		"only unconventional": commits("Merge branch 'main'", "wip"),
	}

	for name, cs := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc := mustDoc(t, "# Changelog\n\n## [1.0.0]\n")
			res, err := newSynth().Synthesize(Input{
				Package:     "cli",
				LastVersion: version.MustParse("1.0.0"),
				Commits:     cs,
				Changelog:   doc,
			})
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoReleaseNeeded))

			var nr *NoReleaseError
			require.ErrorAs(t, err, &nr)
			assert.Equal(t, "cli", nr.Package)
			assert.Equal(t, "# Changelog\n\n## [1.0.0]\n", doc.String())
		})
	}
}

func TestSynthesize_FirstRelease(t *testing.T) {
	t.Parallel()

	res, err := newSynth().Synthesize(Input{Commits: commits("feat: hello")})
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialVersion, res.Next.String())
	assert.Nil(t, res.Previous)
	assert.True(t, strings.HasPrefix(res.Changelog.String(), changelog.DefaultHeader+"## [0.1.0] - 2026-10-14\n"))

	custom := newSynth()
	custom.InitialVersion = version.MustParse("1.0.0")
	res, err = custom.Synthesize(Input{Commits: commits("fix: hello")})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Next.String())

	_, err = custom.Synthesize(Input{Commits: commits("docs: hello")})
	assert.True(t, IsNoRelease(err))
}

func TestSynthesize_ReleaseLinkAndRenderer(t *testing.T) {
	t.Parallel()

	s := newSynth()
	s.Renderer = changelog.RendererFunc(func(sec changelog.Section) (string, error) {
		return changelog.FormatHeading(sec) + "\n", nil
	})

	res, err := s.Synthesize(Input{
		LastVersion: version.MustParse("2.0.0"),
		Commits:     commits("perf: faster"),
		ReleaseLink: "https://example.com/compare/v2.0.0...v{version}",
	})
	require.NoError(t, err)
	assert.Equal(t, "## [2.0.1](https://example.com/compare/v2.0.0...v2.0.1) - 2026-10-14\n", res.SectionText)
}

func TestSynthesize_Errors(t *testing.T) {
	t.Parallel()

	t.Run("section already present", func(t *testing.T) {
		t.Parallel()
		_, err := newSynth().Synthesize(Input{
			LastVersion: version.MustParse("1.0.0"),
			Commits:     commits("fix: x"),
			Changelog:   mustDoc(t, "# Changelog\n\n## [1.0.1]\n"),
		})
		var exists *changelog.SectionExistsError
		assert.ErrorAs(t, err, &exists)
	})

	t.Run("renderer failure", func(t *testing.T) {
		t.Parallel()
		s := newSynth()
		s.Renderer = changelog.RendererFunc(func(changelog.Section) (string, error) {
			return "", errors.New("boom")
		})
		_, err := s.Synthesize(Input{LastVersion: version.MustParse("1.0.0"), Commits: commits("fix: x")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.False(t, IsNoRelease(err))
	})
}

func TestSynthesizeAll(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		{Package: "a", LastVersion: version.MustParse("1.0.0"), Commits: commits("feat: x")},
		{Package: "b", LastVersion: version.MustParse("1.0.0"), Commits: commits("chore: y")},
		{Package: "c", LastVersion: version.MustParse("0.2.0"), Commits: commits("fix: z")},
	}

	outcomes, err := newSynth().SynthesizeAll(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "a", outcomes[0].Package)
	assert.Equal(t, "1.1.0", outcomes[0].Result.Next.String())
	assert.True(t, outcomes[1].Skipped)
	assert.Nil(t, outcomes[1].Result)
	assert.Equal(t, "0.2.1", outcomes[2].Result.Next.String())
}

func TestSynthesizeAll_Error(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		{Package: "ok", LastVersion: version.MustParse("1.0.0"), Commits: commits("feat: x")},
		{
			Package:     "dup",
			LastVersion: version.MustParse("1.0.0"),
			Commits:     commits("feat: x"),
			Changelog:   mustDoc(t, "# C\n\n## [1.1.0]\n"),
		},
	}

	_, err := newSynth().SynthesizeAll(context.Background(), inputs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package dup")
}

func groupLabels(s changelog.Section) []string {
	out := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		out = append(out, g.Label)
	}
	return out
}
