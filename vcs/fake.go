package vcs

import "context"

// Fake is an in-memory VCS used by tests.
type Fake struct {
	FilesChanged   []string
	LocalRevisions map[string]bool
	CommonRevision string
	Default        string
	Remote         string
}

func (f *Fake) GetFilesChanged(_ context.Context, _, _ string) ([]string, error) {
	return f.FilesChanged, nil
}

func (f *Fake) DoesRevisionExistLocally(_ context.Context, rev string) (bool, error) {
	return f.LocalRevisions[rev], nil
}

func (f *Fake) FindLatestCommonRevision(_ context.Context, _, _ string) (string, error) {
	return f.CommonRevision, nil
}

func (f *Fake) DefaultBranch(_ context.Context) (string, error) {
	return f.Default, nil
}

func (f *Fake) RemoteName(_ context.Context) (string, error) {
	return f.Remote, nil
}
