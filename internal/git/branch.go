package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateBranch creates branch name at HEAD and checks it out, replacing a
// stale local branch of the same name. Working tree changes are kept so they
// can be committed to the new branch.
func (r *Repo) CreateBranch(name string) error {
	head, ok, err := r.headHash()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("creating branch '%s': repository has no commits", name)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	if err := r.removeBranch(branchRef); err != nil {
		return err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	// Keep: true preserves the uncommitted changelog edits.
	// Without Keep, go-git resets the working tree during checkout.
	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:   head,
		Branch: branchRef,
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("creating branch '%s': %w", name, err)
	}

	logDebug("[git] CreateBranch: created and checked out %s", name)
	return nil
}

// removeBranch deletes a local branch if it exists.
func (r *Repo) removeBranch(ref plumbing.ReferenceName) error {
	_, err := r.repo.Reference(ref, false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking branch existence: %w", err)
	}

	logDebug("[git] removing stale branch %s", ref.Short())
	if err := r.repo.Storer.RemoveReference(ref); err != nil {
		return fmt.Errorf("removing branch '%s': %w", ref.Short(), err)
	}
	return nil
}

// Checkout switches to an existing local branch. It fails if tracked files
// have uncommitted changes.
func (r *Repo) Checkout(name string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	})
	if err != nil {
		return fmt.Errorf("checking out '%s': %w", name, err)
	}

	logDebug("[git] Checkout: %s", name)
	return nil
}

// RestoreFiles puts paths (relative to the repository root) back to their
// content at HEAD, in both the working tree and the index. A path that is not
// in HEAD is deleted and unstaged.
func (r *Repo) RestoreFiles(paths []string) error {
	head, ok, err := r.headHash()
	if err != nil || !ok {
		return err
	}
	commit, err := r.repo.CommitObject(head)
	if err != nil {
		return fmt.Errorf("reading HEAD commit: %w", err)
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		abs := filepath.Join(r.root, filepath.FromSlash(p))
		file, err := commit.File(p)
		if errors.Is(err, object.ErrFileNotFound) {
			if err := r.unstage(p); err != nil {
				return err
			}
			if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("removing %s: %w", p, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s at HEAD: %w", p, err)
		}

		contents, err := file.Contents()
		if err != nil {
			return fmt.Errorf("reading %s at HEAD: %w", p, err)
		}
		if err := os.WriteFile(abs, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("restoring %s: %w", p, err)
		}
		if _, err := worktree.Add(p); err != nil {
			return fmt.Errorf("restoring index entry of %s: %w", p, err)
		}
	}

	logDebug("[git] RestoreFiles: %v", paths)
	return nil
}

// unstage drops path from the index if it has an entry.
func (r *Repo) unstage(path string) error {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	if _, err := idx.Remove(path); err != nil {
		if errors.Is(err, index.ErrEntryNotFound) {
			return nil
		}
		return fmt.Errorf("unstaging %s: %w", path, err)
	}
	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// CommitFiles stages the given paths (relative to the repository root) and
// commits them on the current branch. It returns the new commit hash.
func (r *Repo) CommitFiles(paths []string, message string) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		if _, err := worktree.Add(p); err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
	}

	sig := r.signature()
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", fmt.Errorf("committing release changes: %w", err)
	}

	logDebug("[git] CommitFiles: %s (%d paths)", hash, len(paths))
	return hash.String(), nil
}

// PushBranch force-pushes a local branch to the same name on the remote.
// The release branch is regenerated on every run, so its history is
// replaced rather than extended.
func (r *Repo) PushBranch(ctx context.Context, remote, name string) error {
	ref := plumbing.NewBranchReferenceName(name)
	return r.push(ctx, remote, config.RefSpec("+"+ref+":"+ref))
}
