package forge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/k-releaser/internal/config"
	"github.com/ariel-frischer/k-releaser/internal/git"
)

func TestDetectKind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		host   string
		want   Kind
		wantOK bool
	}{
		"github":             {host: "github.com", want: GitHub, wantOK: true},
		"github enterprise":  {host: "github.acme.io", want: GitHub, wantOK: true},
		"gitlab":             {host: "gitlab.com", want: GitLab, wantOK: true},
		"self-hosted gitlab": {host: "GitLab.Example.com", want: GitLab, wantOK: true},
		"gitea":              {host: "gitea.example.com", want: Gitea, wantOK: true},
		"codeberg":           {host: "codeberg.org", want: Gitea, wantOK: true},
		"unknown":            {host: "git.example.com"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, ok := DetectKind(tt.host)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	widgets := git.Remote{Host: "github.com", Owner: "acme", Repo: "widgets"}

	tests := map[string]struct {
		cfg      config.Forge
		remote   git.Remote
		wantKind Kind
		wantErr  string
	}{
		"detected github": {
			cfg:      config.Forge{Token: "t"},
			remote:   widgets,
			wantKind: GitHub,
		},
		"explicit type wins": {
			cfg:      config.Forge{Type: "gitea", Token: "t"},
			remote:   widgets,
			wantKind: Gitea,
		},
		"gitlab": {
			cfg:      config.Forge{Token: "t"},
			remote:   git.Remote{Host: "gitlab.com", Owner: "acme/tools", Repo: "widgets"},
			wantKind: GitLab,
		},
		"owner override fills missing remote": {
			cfg:      config.Forge{Type: "github", Token: "t", Owner: "acme", Repo: "widgets"},
			wantKind: GitHub,
		},
		"undetectable host": {
			cfg:     config.Forge{Token: "t"},
			remote:  git.Remote{Host: "git.example.com", Owner: "acme", Repo: "widgets"},
			wantErr: "set forge.type",
		},
		"missing repository": {
			cfg:     config.Forge{Type: "github", Token: "t"},
			wantErr: "forge.owner",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f, err := New(tt.cfg, tt.remote)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, f.Kind())
		})
	}
}

func TestNew_MissingToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	_, err := New(config.Forge{}, git.Remote{Host: "github.com", Owner: "acme", Repo: "widgets"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingToken))
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	err := &APIError{Status: 422, Body: "  {\"message\":\"Validation Failed\"}\n"}
	assert.Equal(t, `forge API returned status 422: {"message":"Validation Failed"}`, err.Error())
}
