// Package vcs defines the small VCS abstraction the core consumes and a
// concrete implementation over github.com/go-git/go-git/v6.
package vcs

import "context"

// VCS is the abstract operations the core consumes.
type VCS interface {
	// GetFilesChanged lists paths touched between baseRev and headRev,
	// feeding Parameters.FilesChanged and the skip-unless-changed
	// optimizer strategy.
	GetFilesChanged(ctx context.Context, baseRev, headRev string) ([]string, error)

	// DoesRevisionExistLocally reports whether rev is present in the
	// local repository without needing a fetch.
	DoesRevisionExistLocally(ctx context.Context, rev string) (bool, error)

	// FindLatestCommonRevision resolves the merge-base of baseRef and
	// headRev, used when defaulting Parameters.BaseRev.
	FindLatestCommonRevision(ctx context.Context, baseRef, headRev string) (string, error)

	// DefaultBranch returns the repository's configured default branch.
	DefaultBranch(ctx context.Context) (string, error)

	// RemoteName returns the name of the remote the repository was
	// cloned from (e.g. "origin").
	RemoteName(ctx context.Context) (string, error)
}
