package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway repository on branch master with a bare "origin"
// remote. Commit times advance one minute per commit from 2026-01-01.
type GitRepo struct {
	t *testing.T
	// Dir is the working tree.
	Dir string
	// RemoteDir is the bare repository behind "origin".
	RemoteDir string
	Repo      *git.Repository
	when      time.Time
}

// NewGitRepo creates an empty repository and its bare remote.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()

	remote := t.TempDir()
	_, err := git.PlainInit(remote, true)
	require.NoError(t, err)

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remote}})
	require.NoError(t, err)

	return &GitRepo{
		t:         t,
		Dir:       dir,
		RemoteDir: remote,
		Repo:      repo,
		when:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Commit writes files and commits them. Empty commits are allowed.
func (g *GitRepo) Commit(message string, files map[string]string) plumbing.Hash {
	g.t.Helper()
	wt, err := g.Repo.Worktree()
	require.NoError(g.t, err)

	for name, content := range files {
		g.Write(name, content)
		_, err := wt.Add(name)
		require.NoError(g.t, err)
	}

	g.when = g.when.Add(time.Minute)
	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: g.when}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true})
	require.NoError(g.t, err)
	return hash
}

// Tag creates a lightweight tag on HEAD.
func (g *GitRepo) Tag(name string) {
	g.t.Helper()
	head, err := g.Repo.Head()
	require.NoError(g.t, err)
	_, err = g.Repo.CreateTag(name, head.Hash(), nil)
	require.NoError(g.t, err)
}

// Write writes a file of the working tree without staging it.
func (g *GitRepo) Write(name, content string) {
	g.t.Helper()
	path := filepath.Join(g.Dir, name)
	require.NoError(g.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(g.t, os.WriteFile(path, []byte(content), 0o644))
}

// Read returns a file of the working tree.
func (g *GitRepo) Read(name string) string {
	g.t.Helper()
	data, err := os.ReadFile(filepath.Join(g.Dir, name))
	require.NoError(g.t, err)
	return string(data)
}

// Remote opens the bare remote.
func (g *GitRepo) Remote() *git.Repository {
	g.t.Helper()
	bare, err := git.PlainOpen(g.RemoteDir)
	require.NoError(g.t, err)
	return bare
}

// RemoteHasRef reports whether the bare remote has the full reference name.
func (g *GitRepo) RemoteHasRef(name string) bool {
	g.t.Helper()
	_, err := g.Remote().Reference(plumbing.ReferenceName(name), true)
	return err == nil
}

// RemoteFile reads a file at the tip of a branch of the bare remote.
func (g *GitRepo) RemoteFile(branch, name string) string {
	g.t.Helper()
	bare := g.Remote()
	ref, err := bare.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(g.t, err)
	commit, err := bare.CommitObject(ref.Hash())
	require.NoError(g.t, err)
	file, err := commit.File(name)
	require.NoError(g.t, err)
	contents, err := file.Contents()
	require.NoError(g.t, err)
	return contents
}
