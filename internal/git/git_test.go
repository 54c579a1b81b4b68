package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepo is a throwaway repository with deterministic commit times.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	when time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, when: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// commit writes files and commits them, returning the commit hash.
func (tr *testRepo) commit(message string, files map[string]string) plumbing.Hash {
	tr.t.Helper()
	wt, err := tr.repo.Worktree()
	require.NoError(tr.t, err)

	for name, content := range files {
		path := filepath.Join(tr.dir, name)
		require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(tr.t, err)
	}

	tr.when = tr.when.Add(time.Minute)
	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: tr.when}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true})
	require.NoError(tr.t, err)
	return hash
}

func (tr *testRepo) open() *Repo {
	tr.t.Helper()
	r, err := Open(tr.dir)
	require.NoError(tr.t, err)
	return r
}

func messages(t *testing.T, r *Repo, boundary string, paths []string) []string {
	t.Helper()
	commits, err := r.CommitsSince(boundary, paths)
	require.NoError(t, err)
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Message)
	}
	return out
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	tr.commit("initial", map[string]string{"pkg/a/main.go": "package a"})

	r, err := Open(filepath.Join(tr.dir, "pkg", "a"))
	require.NoError(t, err)
	assert.Equal(t, tr.dir, r.Root())

	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	_, err = Open(t.TempDir())
	assert.Error(t, err)
}

func TestLatestRelease(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	c1 := tr.commit("feat: one", map[string]string{"a.txt": "1"})
	_, err := tr.repo.CreateTag("v0.1.0", c1, nil)
	require.NoError(t, err)

	c2 := tr.commit("feat: two", map[string]string{"a.txt": "2"})
	_, err = tr.repo.CreateTag("v0.2.0", c2, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test", Email: "test@test.com", When: time.Now()},
		Message: "v0.2.0",
	})
	require.NoError(t, err)

	_, err = tr.repo.CreateTag("core-v9.0.0", c1, nil)
	require.NoError(t, err)
	_, err = tr.repo.CreateTag("vnext", c2, nil)
	require.NoError(t, err)
	_, err = tr.repo.CreateTag("v0.2.0-rc.1", c1, nil)
	require.NoError(t, err)

	r := tr.open()

	tests := map[string]struct {
		template   string
		pkg        string
		wantName   string
		wantCommit plumbing.Hash
	}{
		"annotated tag resolves to commit": {template: "v{version}", wantName: "v0.2.0", wantCommit: c2},
		"package template":                 {template: "{package}-v{version}", pkg: "core", wantName: "core-v9.0.0", wantCommit: c1},
		"no matching tags":                 {template: "{package}-v{version}", pkg: "cli"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tag, err := r.LatestRelease(tt.template, tt.pkg)
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, tag)
				return
			}
			require.NotNil(t, tag)
			assert.Equal(t, tt.wantName, tag.Name)
			assert.Equal(t, tt.wantCommit.String(), tag.Commit)
		})
	}

	_, err = r.LatestRelease("release-{package}", "core")
	assert.Error(t, err)
}

func TestCommitsSince(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	tr.commit("chore: init", map[string]string{"README.md": "x"})
	boundary := tr.commit("feat: released", map[string]string{"pkg/a/a.go": "1"})
	tr.commit("fix(a): after release", map[string]string{"pkg/a/a.go": "2"})
	tr.commit("feat(b): other package", map[string]string{"pkg/b/b.go": "1"})

	r := tr.open()

	assert.Equal(t, []string{"feat(b): other package", "fix(a): after release"},
		messages(t, r, boundary.String(), nil))
	assert.Equal(t, []string{"fix(a): after release"},
		messages(t, r, boundary.String(), []string{"pkg/a"}))
	assert.Equal(t, []string{"fix(a): after release", "feat: released"},
		messages(t, r, "", []string{"pkg/a/"}))
	assert.Len(t, messages(t, r, "", []string{"."}), 4)

	commits, err := r.CommitsSince(boundary.String(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, commits)
	assert.Len(t, commits[0].ID, 40)
	assert.Equal(t, "Test", commits[0].Author)
	assert.False(t, commits[0].Timestamp.IsZero())

	_, err = r.CommitsSince("0123456789012345678901234567890123456789", nil)
	assert.Error(t, err)
}

func TestCommitsSince_EmptyRepository(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	commits, err := tr.open().CommitsSince("", nil)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestCreateTagAndPush(t *testing.T) {
	t.Parallel()

	remoteDir := t.TempDir()
	bare, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	tr := newTestRepo(t)
	head := tr.commit("feat: first", map[string]string{"a.txt": "1"})
	_, err = tr.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	r := tr.open()

	exists, err := r.TagExists("v0.1.0")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, r.CreateTag("v0.1.0", "Release v0.1.0"))
	exists, err = r.TagExists("v0.1.0")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Error(t, r.CreateTag("v0.1.0", ""), "duplicate tag")

	tag, err := r.LatestRelease("v{version}", "")
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, head.String(), tag.Commit)

	require.NoError(t, r.PushBranch(context.Background(), "", "master"))
	require.NoError(t, r.PushTag(context.Background(), "origin", "v0.1.0"))
	// Pushing again is a no-op.
	require.NoError(t, r.PushTag(context.Background(), "origin", "v0.1.0"))

	_, err = bare.Tag("v0.1.0")
	assert.NoError(t, err)

	url, err := r.RemoteURL("")
	require.NoError(t, err)
	assert.Equal(t, remoteDir, url)
	_, err = r.RemoteURL("upstream")
	assert.Error(t, err)
}

func TestReleaseBranchFlow(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	tr.commit("feat: first", map[string]string{"CHANGELOG.md": "# Changelog\n"})
	r := tr.open()

	changelog := filepath.Join(tr.dir, "CHANGELOG.md")
	require.NoError(t, os.WriteFile(changelog, []byte("# Changelog\n\n## [0.1.0]\n"), 0o644))
	untracked := filepath.Join(tr.dir, ".cache", "state")
	require.NoError(t, os.MkdirAll(filepath.Dir(untracked), 0o755))
	require.NoError(t, os.WriteFile(untracked, []byte("keep"), 0o644))

	require.NoError(t, r.CreateBranch("release/2026-10-14"))
	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "release/2026-10-14", branch)

	// Uncommitted and untracked files survive the checkout.
	data, err := os.ReadFile(changelog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## [0.1.0]")
	_, err = os.Stat(untracked)
	require.NoError(t, err)

	hash, err := r.CommitFiles([]string{"CHANGELOG.md"}, "chore: release")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	require.NoError(t, r.Checkout("master"))
	data, err = os.ReadFile(changelog)
	require.NoError(t, err)
	assert.Equal(t, "# Changelog\n", string(data))

	// A stale release branch is replaced.
	require.NoError(t, r.CreateBranch("release/2026-10-14"))
	ref, err := tr.repo.Reference(plumbing.NewBranchReferenceName("release/2026-10-14"), true)
	require.NoError(t, err)
	assert.NotEqual(t, hash, ref.Hash().String())
}

func TestRestoreFiles(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	tr.commit("feat: first", map[string]string{"CHANGELOG.md": "# Changelog\n"})
	r := tr.open()
	require.NoError(t, r.CreateBranch("release/2026-10-14"))

	// Changelog edits staged by a commit attempt that did not complete.
	edited := map[string]string{
		"CHANGELOG.md":     "# Changelog\n\n## [0.1.0]\n",
		"api/CHANGELOG.md": "# Changelog\n\n## [0.1.0]\n",
	}
	wt, err := tr.repo.Worktree()
	require.NoError(t, err)
	for name, content := range edited {
		path := filepath.Join(tr.dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	require.NoError(t, r.RestoreFiles([]string{"CHANGELOG.md", "api/CHANGELOG.md"}))

	data, err := os.ReadFile(filepath.Join(tr.dir, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Changelog\n", string(data))
	_, err = os.Stat(filepath.Join(tr.dir, "api", "CHANGELOG.md"))
	assert.True(t, os.IsNotExist(err), "file absent from HEAD should be removed")

	status, err := wt.Status()
	require.NoError(t, err)
	assert.True(t, status.IsClean(), "worktree should be clean, got:\n%s", status)

	require.NoError(t, r.Checkout("master"))
	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestTagName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v1.2.3", TagName("v{version}", "core", "1.2.3"))
	assert.Equal(t, "core-v1.2.3", TagName("{package}-v{version}", "core", "v1.2.3"))
}

// Not parallel: sets SSH_AUTH_SOCK.
func TestSSHAgentRunning(t *testing.T) {
	tests := map[string]struct {
		envValue string
		want     bool
	}{
		"socket path": {envValue: "/tmp/ssh-agent.sock", want: true},
		"empty":       {envValue: "", want: false},
		"whitespace":  {envValue: "   ", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SSH_AUTH_SOCK", tt.envValue)
			assert.Equal(t, tt.want, sshAgentRunning())
		})
	}
}

func TestTransportOf(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		url  string
		want remoteTransport
	}{
		"scp style":      {url: "git@github.com:acme/widgets.git", want: sshTransport},
		"ssh with port":  {url: "ssh://git@gitlab.com:22/acme/widgets.git", want: sshTransport},
		"git+ssh":        {url: "git+ssh://git@github.com/acme/widgets.git", want: sshTransport},
		"https":          {url: "https://github.com/acme/widgets.git", want: httpTransport},
		"http with auth": {url: "http://bot:pw@gitea.local/acme/widgets.git", want: httpTransport},
		"file url":       {url: "file:///srv/git/widgets.git", want: localTransport},
		"bare path":      {url: "/srv/git/widgets.git", want: localTransport},
		"empty":          {want: localTransport},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transportOf(tt.url))
		})
	}
}

// Not parallel: sets GIT_USERNAME and GIT_PASSWORD.
func TestAuthFor(t *testing.T) {
	t.Setenv("GIT_USERNAME", "")
	t.Setenv("GIT_PASSWORD", "")

	assert.Nil(t, authFor("https://github.com/o/r.git", ""))
	assert.Nil(t, authFor("/srv/git/r.git", "tok"))

	auth := authFor("https://github.com/o/r.git", "tok")
	require.NotNil(t, auth)
	assert.Equal(t, "http-basic-auth", auth.Name())

	t.Setenv("GIT_USERNAME", "bot")
	t.Setenv("GIT_PASSWORD", "secret")
	auth = authFor("https://github.com/o/r.git", "tok")
	require.NotNil(t, auth)
	assert.Contains(t, auth.String(), "bot")
}
