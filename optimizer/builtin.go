package optimizer

import (
	"context"
	"fmt"

	zglob "github.com/mattn/go-zglob"

	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/task"
)

// IndexSearch is the built-in index-search replacement strategy: arg is an ordered list of index paths; the first whose indexed
// task exists, is not failed/exception, and outlives deadline wins.
type IndexSearch struct {
	noopStrategy
	Client platform.Client
}

func (s IndexSearch) ShouldReplaceTask(ctx context.Context, _ *task.Task, _ Params, deadline Deadline, arg interface{}) (string, bool, error) {
	paths, ok := stringListArg(arg)
	if !ok {
		return "", false, fmt.Errorf("index-search: arg must be a list of index paths, got %T", arg)
	}

	results := platform.BatchFindTaskByIndex(ctx, s.Client, paths)

	var taskIDs []string
	for _, r := range results {
		if r.Found && r.Err == nil {
			taskIDs = append(taskIDs, r.TaskID)
		}
	}

	if len(taskIDs) == 0 {
		return "", false, nil
	}

	statuses, err := s.Client.GetTaskStatuses(ctx, taskIDs)
	if err != nil {
		return "", false, err
	}

	// Preserve the caller's ordering: the first index path whose task
	// qualifies wins, not just any qualifying task.
	for _, r := range results {
		if !r.Found || r.Err != nil {
			continue
		}

		st, ok := statuses[r.TaskID]
		if !ok {
			continue
		}

		if st.State == platform.StateFailed || st.State == platform.StateException {
			continue
		}

		if deadline != 0 && st.Expires < deadline {
			continue
		}

		return r.TaskID, true, nil
	}

	return "", false, nil
}

// SkipUnlessChanged is the built-in removal strategy: arg is a
// list of glob patterns; the task is removed iff none of
// Parameters.FilesChanged() matches any pattern. Patterns use `**`-aware
// glob semantics, the same zglob matching the kind loader's tasks-from
// uses.
type SkipUnlessChanged struct {
	noopStrategy
}

func (s SkipUnlessChanged) ShouldRemoveTask(_ context.Context, _ *task.Task, params Params, arg interface{}) (bool, error) {
	patterns, ok := stringListArg(arg)
	if !ok {
		return false, fmt.Errorf("skip-unless-changed: arg must be a list of glob patterns, got %T", arg)
	}

	files := params.FilesChanged()

	for _, f := range files {
		for _, pattern := range patterns {
			matched, err := zglob.Match(pattern, f)
			if err == nil && matched {
				return false, nil
			}
		}
	}

	return true, nil
}

// stringListArg accepts the two shapes a strategy arg list arrives in:
// []string from Go callers and []interface{} from decoded YAML.
func stringListArg(arg interface{}) ([]string, bool) {
	switch v := arg.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))

		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}

			out = append(out, s)
		}

		return out, true
	default:
		return nil, false
	}
}
