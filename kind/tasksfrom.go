package kind

import (
	"path/filepath"

	"github.com/mattn/go-zglob"

	"github.com/taskforge-dev/taskforge/internal/errors"
)

// resolveTasksFrom expands k.TasksFrom into concrete file paths relative
// to the kind directory. Entries may be a plain relative path or a
// recursive glob; go-zglob supplies the `**` matching.
func (k *Kind) resolveTasksFrom() ([]string, error) {
	var out []string

	for _, pattern := range k.TasksFrom {
		full := filepath.Join(k.Dir, pattern)

		matches, err := zglob.Glob(full)
		if err != nil {
			out = append(out, full)
			continue
		}

		if len(matches) == 0 {
			return nil, &errors.LoaderError{Kind: k.Name, Reason: "tasks-from path matches no files: " + pattern}
		}

		out = append(out, matches...)
	}

	return out, nil
}
