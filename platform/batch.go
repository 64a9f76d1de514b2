package platform

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentIndexLookups bounds how many FindTaskByIndex calls the
// batching helper issues at once, so a target graph with thousands of
// index-search strategies doesn't open thousands of sockets at once.
const maxConcurrentIndexLookups = 16

// IndexLookupResult pairs an index path with its resolution.
type IndexLookupResult struct {
	IndexPath string
	TaskID    string
	Found     bool
	Err       error
}

// BatchFindTaskByIndex resolves many index paths concurrently. The order of
// results matches the order of paths.
func BatchFindTaskByIndex(ctx context.Context, client Client, paths []string) []IndexLookupResult {
	results := make([]IndexLookupResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentIndexLookups)

	for i, p := range paths {
		i, p := i, p

		g.Go(func() error {
			taskID, found, err := client.FindTaskByIndex(gctx, p)
			results[i] = IndexLookupResult{IndexPath: p, TaskID: taskID, Found: found, Err: err}
			return nil // collect errors per-result, don't abort the batch
		})
	}

	_ = g.Wait()

	return results
}
