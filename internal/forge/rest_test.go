package forge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/k-releaser/internal/config"
	"github.com/ariel-frischer/k-releaser/internal/git"
	"github.com/ariel-frischer/k-releaser/internal/testutil"
)

func newTestForge(t *testing.T, kind Kind, url string) Forge {
	t.Helper()
	f, err := New(
		config.Forge{Type: string(kind), URL: url, Token: "secret"},
		git.Remote{Host: "example.com", Owner: "acme", Repo: "widgets"},
	)
	require.NoError(t, err)
	return f
}

func TestREST_FindPullRequest(t *testing.T) {
	t.Parallel()

	pulls := `[
		{"number": 3, "html_url": "https://example.com/pr/3", "title": "feat: other", "head": {"ref": "feature-x"}},
		{"number": 2, "html_url": "https://example.com/pr/2", "title": "chore: release", "head": {"ref": "k-releaser-2026-10-01T10-00-00Z"}}
	]`

	tests := map[string]struct {
		kind      Kind
		prefix    string
		want      *PullRequest
		wantAuth  string
		wantQuery string
	}{
		"github match": {
			kind:      GitHub,
			prefix:    "k-releaser-",
			want:      &PullRequest{Number: 2, URL: "https://example.com/pr/2", Title: "chore: release", Branch: "k-releaser-2026-10-01T10-00-00Z"},
			wantAuth:  "Bearer secret",
			wantQuery: "direction=desc&per_page=50&sort=created&state=open",
		},
		"gitea match": {
			kind:      Gitea,
			prefix:    "k-releaser-",
			want:      &PullRequest{Number: 2, URL: "https://example.com/pr/2", Title: "chore: release", Branch: "k-releaser-2026-10-01T10-00-00Z"},
			wantAuth:  "token secret",
			wantQuery: "limit=50&sort=recentupdate&state=open",
		},
		"no match": {
			kind:      GitHub,
			prefix:    "release-",
			wantAuth:  "Bearer secret",
			wantQuery: "direction=desc&per_page=50&sort=created&state=open",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := testutil.NewFakeForge(t, map[string]testutil.Response{
				"GET /repos/acme/widgets/pulls": {Status: http.StatusOK, Body: pulls},
			})

			got, err := newTestForge(t, tt.kind, srv.URL()).FindPullRequest(context.Background(), tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			calls := srv.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantAuth, calls[0].Auth)
			assert.Equal(t, tt.wantQuery, calls[0].Query)
		})
	}
}

func TestREST_CreatePullRequest(t *testing.T) {
	t.Parallel()

	created := `{"number": 9, "html_url": "https://example.com/pr/9", "title": "chore: release v1.3.0", "head": {"ref": "k-releaser-x"}}`
	in := PullRequestInput{
		Title:  "chore: release v1.3.0",
		Body:   "body",
		Head:   "k-releaser-x",
		Base:   "main",
		Draft:  true,
		Labels: []string{"release"},
	}

	t.Run("github", func(t *testing.T) {
		t.Parallel()
		srv := testutil.NewFakeForge(t, map[string]testutil.Response{
			"POST /repos/acme/widgets/pulls":           {Status: http.StatusCreated, Body: created},
			"POST /repos/acme/widgets/issues/9/labels": {Status: http.StatusOK, Body: `[]`},
		})

		pr, err := newTestForge(t, GitHub, srv.URL()).CreatePullRequest(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int64(9), pr.Number)
		assert.Equal(t, "k-releaser-x", pr.Branch)

		calls := srv.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, map[string]any{
			"title": "chore: release v1.3.0",
			"body":  "body",
			"head":  "k-releaser-x",
			"base":  "main",
			"draft": true,
		}, calls[0].Body)
		assert.Equal(t, map[string]any{"labels": []any{"release"}}, calls[1].Body)
	})

	t.Run("gitea", func(t *testing.T) {
		t.Parallel()
		srv := testutil.NewFakeForge(t, map[string]testutil.Response{
			"POST /repos/acme/widgets/pulls": {Status: http.StatusCreated, Body: created},
		})

		_, err := newTestForge(t, Gitea, srv.URL()).CreatePullRequest(context.Background(), in)
		require.NoError(t, err)

		calls := srv.Calls()
		require.Len(t, calls, 1, "gitea labels are skipped")
		assert.Equal(t, "WIP: chore: release v1.3.0", calls[0].Body["title"])
		assert.NotContains(t, calls[0].Body, "draft")
	})
}

func TestREST_UpdatePullRequest(t *testing.T) {
	t.Parallel()

	srv := testutil.NewFakeForge(t, map[string]testutil.Response{
		"PATCH /repos/acme/widgets/pulls/4": {Status: http.StatusOK, Body: `{}`},
	})

	err := newTestForge(t, GitHub, srv.URL()).UpdatePullRequest(context.Background(), 4, PullRequestInput{Title: "t", Body: "b"})
	require.NoError(t, err)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"title": "t", "body": "b"}, calls[0].Body)
}

func TestREST_CreateRelease(t *testing.T) {
	t.Parallel()

	srv := testutil.NewFakeForge(t, map[string]testutil.Response{
		"POST /repos/acme/widgets/releases": {
			Status: http.StatusCreated,
			Body:   `{"html_url": "https://example.com/releases/v1.3.0", "tag_name": "v1.3.0"}`,
		},
	})

	rel, err := newTestForge(t, Gitea, srv.URL()).CreateRelease(context.Background(), ReleaseInput{
		TagName: "v1.3.0",
		Name:    "v1.3.0",
		Body:    "### Features\n- export",
	})
	require.NoError(t, err)
	assert.Equal(t, &Release{URL: "https://example.com/releases/v1.3.0", TagName: "v1.3.0"}, rel)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "v1.3.0", calls[0].Body["tag_name"])
	assert.Equal(t, false, calls[0].Body["draft"])
}

func TestREST_APIError(t *testing.T) {
	t.Parallel()

	srv := testutil.NewFakeForge(t, map[string]testutil.Response{
		"POST /repos/acme/widgets/releases": {Status: http.StatusUnprocessableEntity, Body: `{"message":"already_exists"}`},
	})

	_, err := newTestForge(t, GitHub, srv.URL()).CreateRelease(context.Background(), ReleaseInput{TagName: "v1.0.0"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "already_exists")
}

func TestREST_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(server.Close)

	got, err := newTestForge(t, GitHub, server.URL).FindPullRequest(context.Background(), "k-releaser-")
	require.NoError(t, err)
	assert.Nil(t, got)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}
