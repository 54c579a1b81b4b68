// Package forge talks to the git hosting service that receives release pull
// requests and releases. GitHub and Gitea share one REST implementation;
// GitLab goes through the official API client.
package forge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/k-releaser/internal/config"
	"github.com/ariel-frischer/k-releaser/internal/git"
)

// logDebug receives request traces. SetDebugLogger replaces it.
var logDebug = func(string, ...any) {}

// SetDebugLogger routes request traces to logger. nil discards them.
func SetDebugLogger(logger func(format string, args ...any)) {
	if logger == nil {
		logger = func(string, ...any) {}
	}
	logDebug = logger
}

// Kind names a forge implementation.
type Kind string

const (
	GitHub Kind = "github"
	GitLab Kind = "gitlab"
	Gitea  Kind = "gitea"
)

// ErrMissingToken is returned by New when no API token is configured.
var ErrMissingToken = errors.New("forge token not set")

// Forge opens release pull requests and publishes releases.
type Forge interface {
	Kind() Kind
	// FindPullRequest returns the most recent open pull request whose head
	// branch starts with branchPrefix, or nil when there is none.
	FindPullRequest(ctx context.Context, branchPrefix string) (*PullRequest, error)
	CreatePullRequest(ctx context.Context, in PullRequestInput) (*PullRequest, error)
	// UpdatePullRequest replaces the title and body of an open pull request.
	UpdatePullRequest(ctx context.Context, number int64, in PullRequestInput) error
	CreateRelease(ctx context.Context, in ReleaseInput) (*Release, error)
}

// PullRequest is an open pull request (merge request on GitLab).
type PullRequest struct {
	Number int64
	URL    string
	Title  string
	Branch string
}

// PullRequestInput describes a pull request to open or update.
type PullRequestInput struct {
	Title  string
	Body   string
	Head   string
	Base   string
	Draft  bool
	Labels []string
}

// ReleaseInput describes a release to publish for an existing tag.
type ReleaseInput struct {
	TagName    string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
}

// Release is a published release.
type Release struct {
	URL     string
	TagName string
}

// APIError is a non-2xx response from a forge API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("forge API returned status %d: %s", e.Status, body)
}

// DetectKind guesses the forge from a remote host name.
// Returns false when the host does not identify a forge.
func DetectKind(host string) (Kind, bool) {
	host = strings.ToLower(host)
	switch {
	case host == "github.com" || strings.Contains(host, "github"):
		return GitHub, true
	case strings.Contains(host, "gitlab"):
		return GitLab, true
	case strings.Contains(host, "gitea") || strings.Contains(host, "forgejo") || host == "codeberg.org":
		return Gitea, true
	}
	return "", false
}

// New returns the forge for the repository remote. cfg.Type wins over host
// detection, cfg.Owner and cfg.Repo over the values parsed from the remote.
func New(cfg config.Forge, remote git.Remote) (Forge, error) {
	kind := Kind(cfg.Type)
	if kind == "" {
		detected, ok := DetectKind(remote.Host)
		if !ok {
			return nil, fmt.Errorf("cannot detect forge type for host %q: set forge.type", remote.Host)
		}
		kind = detected
	}

	if cfg.Owner != "" {
		remote.Owner = cfg.Owner
	}
	if cfg.Repo != "" {
		remote.Repo = cfg.Repo
	}
	if remote.Owner == "" || remote.Repo == "" {
		return nil, fmt.Errorf("forge repository unknown: set forge.owner and forge.repo")
	}

	token := cfg.TokenFor(string(kind))
	if token == "" {
		return nil, fmt.Errorf("%w: set K_RELEASER_FORGE_TOKEN or %s_TOKEN", ErrMissingToken, strings.ToUpper(string(kind)))
	}

	baseURL := strings.TrimSuffix(cfg.URL, "/")
	logDebug("[forge] %s %s/%s (api %q)", kind, remote.Owner, remote.Repo, baseURL)

	switch kind {
	case GitHub:
		if baseURL == "" {
			baseURL = "https://api.github.com"
			if remote.Host != "" && remote.Host != "github.com" {
				baseURL = "https://" + remote.Host + "/api/v3"
			}
		}
		return newREST(GitHub, baseURL, token, remote), nil
	case Gitea:
		if baseURL == "" {
			baseURL = "https://" + remote.Host + "/api/v1"
		}
		return newREST(Gitea, baseURL, token, remote), nil
	case GitLab:
		if baseURL == "" {
			baseURL = "https://" + remote.Host
		}
		return newGitLab(baseURL, token, remote)
	default:
		return nil, fmt.Errorf("unsupported forge type %q", kind)
	}
}
