// Package git reads release history from a git repository and records new
// releases in it. It uses go-git for every operation: tag scanning, commit
// log walking, release branch commits, tag creation and pushes.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// logDebug receives the package's debug messages. It discards them until
// SetDebugLogger installs a logger.
var logDebug = func(string, ...any) {}

// SetDebugLogger routes debug messages to logger. nil discards them.
func SetDebugLogger(logger func(format string, args ...any)) {
	if logger == nil {
		logger = func(string, ...any) {}
	}
	logDebug = logger
}

// DefaultFetchTimeout bounds FetchTags when the caller's context has no deadline.
const DefaultFetchTimeout = 60 * time.Second

// DefaultRemote is the remote used when none is configured.
const DefaultRemote = "origin"

// Repo is an opened repository.
type Repo struct {
	repo *git.Repository
	root string
	// Token is used for HTTPS pushes when GIT_USERNAME is not set.
	Token string
}

// Open opens the repository containing path, searching parent directories
// for the .git directory. An empty path means the working directory.
func Open(path string) (*Repo, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	r := &Repo{repo: repo, root: path}
	if wt, err := repo.Worktree(); err == nil {
		r.root = wt.Filesystem.Root()
	}

	logDebug("[git] repository opened at %s", r.root)
	return r, nil
}

// Root returns the absolute path of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the short name of the checked out branch.
// Returns empty string if in detached HEAD state.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}

	branch := head.Name().Short()
	logDebug("[git] CurrentBranch: %s", branch)
	return branch, nil
}

// signature builds the author of release commits and tags from the
// repository's git config, falling back to a fixed identity.
func (r *Repo) signature() *object.Signature {
	sig := &object.Signature{Name: "k-releaser", Email: "k-releaser@users.noreply.local", When: time.Now()}

	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		logDebug("[git] reading git config: %v", err)
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

// RemoteURL returns the first URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	if name == "" {
		name = DefaultRemote
	}

	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("looking up remote %q: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", name)
	}
	return urls[0], nil
}

// FetchTags fetches all tags from the named remote so tags created on other
// machines are visible to LatestRelease. SSH remotes are skipped when no SSH
// agent is available.
func (r *Repo) FetchTags(ctx context.Context, remoteName string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultFetchTimeout)
		defer cancel()
	}

	url, err := r.RemoteURL(remoteName)
	if err != nil {
		return err
	}
	if transportOf(url) == sshTransport && !sshAgentRunning() {
		logDebug("[git] skipping tag fetch from %s: SSH URL without SSH agent available", url)
		return nil
	}

	if remoteName == "" {
		remoteName = DefaultRemote
	}
	logDebug("[git] fetching tags from remote '%s' (%s)", remoteName, url)

	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       authFor(url, r.Token),
		Tags:       git.AllTags,
		RefSpecs:   []config.RefSpec{"+refs/tags/*:refs/tags/*"},
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching tags from %s: %w", remoteName, err)
	}
	return nil
}

// push pushes refspecs to the named remote with credentials chosen by URL.
func (r *Repo) push(ctx context.Context, remoteName string, specs ...config.RefSpec) error {
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	url, err := r.RemoteURL(remoteName)
	if err != nil {
		return err
	}

	logDebug("[git] pushing %v to remote '%s' (%s)", specs, remoteName, url)

	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   specs,
		Auth:       authFor(url, r.Token),
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pushing to %s: %w", remoteName, err)
	}
	return nil
}

// remoteTransport is how a remote URL is reached.
type remoteTransport int

const (
	localTransport remoteTransport = iota
	sshTransport
	httpTransport
)

var transportPrefixes = []struct {
	prefix    string
	transport remoteTransport
}{
	{"git@", sshTransport},
	{"ssh://", sshTransport},
	{"git+ssh://", sshTransport},
	{"https://", httpTransport},
	{"http://", httpTransport},
}

// transportOf classifies url. Anything unrecognized is a local path.
func transportOf(url string) remoteTransport {
	for _, p := range transportPrefixes {
		if strings.HasPrefix(url, p.prefix) {
			return p.transport
		}
	}
	return localTransport
}

// authFor picks credentials for url. SSH remotes go through the SSH agent.
// HTTP remotes use GIT_USERNAME and GIT_PASSWORD, or else the forge token.
func authFor(url, token string) transport.AuthMethod {
	switch transportOf(url) {
	case sshTransport:
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	case httpTransport:
		if user := os.Getenv("GIT_USERNAME"); user != "" {
			return &http.BasicAuth{Username: user, Password: os.Getenv("GIT_PASSWORD")}
		}
		if token != "" {
			// Forges accept an access token as the password for any non-empty user.
			return &http.BasicAuth{Username: "k-releaser", Password: token}
		}
	}
	return nil
}

// sshAgentRunning reports whether SSH_AUTH_SOCK names an agent.
func sshAgentRunning() bool {
	return strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")) != ""
}

// headHash resolves HEAD. ok is false for a repository without commits.
func (r *Repo) headHash() (plumbing.Hash, bool, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("getting HEAD reference: %w", err)
	}
	return head.Hash(), true, nil
}
