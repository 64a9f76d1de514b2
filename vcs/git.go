package vcs

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// Git is a VCS implementation backed by a local git repository.
type Git struct {
	repo *git.Repository
}

// Open opens the git repository rooted at path.
func Open(path string) (*Git, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	return &Git{repo: repo}, nil
}

func (g *Git) commit(rev string) (*object.Commit, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}

	return g.repo.CommitObject(*hash)
}

func (g *Git) GetFilesChanged(_ context.Context, baseRev, headRev string) ([]string, error) {
	base, err := g.commit(baseRev)
	if err != nil {
		return nil, fmt.Errorf("resolving base revision %s: %w", baseRev, err)
	}

	head, err := g.commit(headRev)
	if err != nil {
		return nil, fmt.Errorf("resolving head revision %s: %w", headRev, err)
	}

	baseTree, err := base.Tree()
	if err != nil {
		return nil, err
	}

	headTree, err := head.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, c := range changes {
		action, err := c.Action()
		if err != nil {
			return nil, err
		}

		_ = action

		if c.From.Name != "" {
			files = append(files, c.From.Name)
		}

		if c.To.Name != "" && c.To.Name != c.From.Name {
			files = append(files, c.To.Name)
		}
	}

	return files, nil
}

func (g *Git) DoesRevisionExistLocally(_ context.Context, rev string) (bool, error) {
	_, err := g.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return false, nil
	}

	return true, nil
}

func (g *Git) FindLatestCommonRevision(_ context.Context, baseRef, headRev string) (string, error) {
	baseHash, err := g.repo.ResolveRevision(plumbing.Revision(baseRef))
	if err != nil {
		return "", fmt.Errorf("resolving base ref %s: %w", baseRef, err)
	}

	headHash, err := g.repo.ResolveRevision(plumbing.Revision(headRev))
	if err != nil {
		return "", fmt.Errorf("resolving head revision %s: %w", headRev, err)
	}

	baseCommit, err := g.repo.CommitObject(*baseHash)
	if err != nil {
		return "", err
	}

	headCommit, err := g.repo.CommitObject(*headHash)
	if err != nil {
		return "", err
	}

	commonAncestors, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return "", err
	}

	if len(commonAncestors) == 0 {
		return "", fmt.Errorf("no common ancestor between %s and %s", baseRef, headRev)
	}

	return commonAncestors[0].Hash.String(), nil
}

// DefaultBranch returns the short name of the branch HEAD points at; the
// remote's default branch is not looked up.
func (g *Git) DefaultBranch(_ context.Context) (string, error) {
	ref, err := g.repo.Reference(plumbing.HEAD, true)
	if err != nil {
		return "", err
	}

	return ref.Name().Short(), nil
}

func (g *Git) RemoteName(_ context.Context) (string, error) {
	remotes, err := g.repo.Remotes()
	if err != nil {
		return "", err
	}

	if len(remotes) == 0 {
		return "", fmt.Errorf("no remotes configured")
	}

	return remotes[0].Config().Name, nil
}
