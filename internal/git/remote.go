package git

import (
	"fmt"
	"net/url"
	"strings"
)

// Remote identifies a repository on a forge.
type Remote struct {
	Host string
	// Owner is the user, organization or (on GitLab) the full group path.
	Owner string
	Repo  string
}

// Path returns "owner/repo".
func (r Remote) Path() string {
	return r.Owner + "/" + r.Repo
}

// ParseRemote extracts host, owner and repository name from a remote URL.
// Handles SCP-style ("git@host:owner/repo.git"), ssh://, git+ssh://, http://
// and https:// forms. Nested GitLab groups end up in Owner.
func ParseRemote(raw string) (Remote, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Remote{}, fmt.Errorf("empty remote URL")
	}

	var host, path string
	if !strings.Contains(raw, "://") {
		// SCP-style: [user@]host:path
		at := strings.LastIndex(raw, "@")
		rest := raw[at+1:]
		h, p, ok := strings.Cut(rest, ":")
		if !ok {
			return Remote{}, fmt.Errorf("unsupported remote URL %q", raw)
		}
		host, path = h, p
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("parsing remote URL %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	idx := strings.LastIndex(path, "/")
	if host == "" || idx <= 0 || idx == len(path)-1 {
		return Remote{}, fmt.Errorf("remote URL %q has no owner/repo path", raw)
	}

	return Remote{Host: host, Owner: path[:idx], Repo: path[idx+1:]}, nil
}
