package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/ariel-frischer/k-releaser/internal/conventional"
)

// CommitsSince returns the commits reachable from HEAD but not from boundary,
// newest first. An empty boundary means the whole history. When paths is
// non-empty only commits touching a file under one of the paths are kept.
func (r *Repo) CommitsSince(boundary string, paths []string) ([]conventional.Commit, error) {
	head, ok, err := r.headHash()
	if err != nil {
		return nil, err
	}
	if !ok {
		logDebug("[git] CommitsSince: repository has no commits")
		return nil, nil
	}

	released, err := r.ancestors(boundary)
	if err != nil {
		return nil, err
	}

	opts := &git.LogOptions{From: head, Order: git.LogOrderCommitterTime}
	if filter := pathFilter(paths); filter != nil {
		opts.PathFilter = filter
	}

	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	var commits []conventional.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if _, seen := released[c.Hash]; seen {
			return nil
		}
		commits = append(commits, conventional.Commit{
			ID:        c.Hash.String(),
			Message:   c.Message,
			Timestamp: c.Author.When,
			Author:    c.Author.Name,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking log: %w", err)
	}

	logDebug("[git] CommitsSince(%s, %v): %d commits", shortHash(boundary), paths, len(commits))
	return commits, nil
}

// ancestors collects boundary and every commit reachable from it.
func (r *Repo) ancestors(boundary string) (map[plumbing.Hash]struct{}, error) {
	set := make(map[plumbing.Hash]struct{})
	if boundary == "" {
		return set, nil
	}

	start, err := r.repo.CommitObject(plumbing.NewHash(boundary))
	if err != nil {
		return nil, fmt.Errorf("resolving boundary commit %s: %w", shortHash(boundary), err)
	}

	iter := object.NewCommitPreorderIter(start, nil, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		set[c.Hash] = struct{}{}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("walking history of %s: %w", shortHash(boundary), err)
	}
	return set, nil
}

// pathFilter builds a log path filter for package directories.
// The repository root ("" or ".") matches everything.
func pathFilter(paths []string) func(string) bool {
	var dirs []string
	for _, p := range paths {
		p = filepath.ToSlash(filepath.Clean(p))
		if p == "." || p == "" {
			return nil
		}
		dirs = append(dirs, strings.TrimSuffix(p, "/"))
	}
	if len(dirs) == 0 {
		return nil
	}

	return func(file string) bool {
		for _, d := range dirs {
			if file == d || strings.HasPrefix(file, d+"/") {
				return true
			}
		}
		return false
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
