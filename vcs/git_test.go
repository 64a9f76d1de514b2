package vcs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/vcs"
)

func commitFile(t *testing.T, dir string, repo *git.Repository, name, content, message string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.test", When: time.Now()},
	})
	require.NoError(t, err)

	return hash.String()
}

func TestGitFilesChangedBetweenRevisions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	base := commitFile(t, dir, repo, "README.md", "one", "initial")
	head := commitFile(t, dir, repo, "src/main.go", "package main", "add main")

	g, err := vcs.Open(dir)
	require.NoError(t, err)

	ctx := context.Background()

	files, err := g.GetFilesChanged(ctx, base, head)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go"}, files)

	exists, err := g.DoesRevisionExistLocally(ctx, head)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = g.DoesRevisionExistLocally(ctx, "0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.False(t, exists)

	common, err := g.FindLatestCommonRevision(ctx, base, head)
	require.NoError(t, err)
	assert.Equal(t, base, common)

	branch, err := g.DefaultBranch(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}
