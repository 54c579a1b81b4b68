package testutil

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeForge(t *testing.T) {
	t.Parallel()

	fake := NewFakeForge(t, map[string]Response{
		"POST /repos/acme/widgets/pulls": {Status: http.StatusCreated, Body: `{"number": 1}`},
		"GET /repos/acme/widgets/pulls":  {Body: `[]`},
	})

	req, err := http.NewRequest(http.MethodPost, fake.URL()+"/repos/acme/widgets/pulls?draft=1", strings.NewReader(`{"title":"chore: release"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(fake.URL() + "/repos/acme/widgets/pulls")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(fake.URL() + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, Request{
		Method: http.MethodPost,
		Path:   "/repos/acme/widgets/pulls",
		Query:  "draft=1",
		Auth:   "Bearer secret",
		Body:   map[string]any{"title": "chore: release"},
	}, calls[0])
	assert.Nil(t, calls[1].Body)
}

func TestGitRepo(t *testing.T) {
	t.Parallel()

	g := NewGitRepo(t)
	first := g.Commit("feat: first", map[string]string{"pkg/a.txt": "one"})
	g.Tag("v0.1.0")
	assert.Equal(t, "one", g.Read("pkg/a.txt"))

	tag, err := g.Repo.Tag("v0.1.0")
	require.NoError(t, err)
	assert.Equal(t, first, tag.Hash())

	require.NoError(t, g.Repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{"refs/heads/master:refs/heads/master"},
	}))
	assert.True(t, g.RemoteHasRef("refs/heads/master"))
	assert.False(t, g.RemoteHasRef("refs/tags/v0.1.0"))
	assert.Equal(t, "one", g.RemoteFile("master", "pkg/a.txt"))
}
