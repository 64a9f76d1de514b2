package morph

import (
	"fmt"

	"github.com/taskforge-dev/taskforge/task"
)

// ApplyJSONE is the "apply-jsone" morph: it performs a final
// expression-language substitution over each task's wire-format
// definition, delegated entirely to opts.JSONE since the expression
// language itself is opaque to the core. A nil JSONE is a no-op, the
// convention the rest of the optional-collaborator fields in this package
// follow.
func ApplyJSONE(set *task.Set, opts Options) ([]*task.Task, error) {
	if opts.JSONE == nil {
		return nil, nil
	}

	for _, label := range sortedTaskLabels(set) {
		t := set.Tasks[label]

		substituted, err := opts.JSONE.Substitute(t.TaskDefinition, t.Attributes)
		if err != nil {
			return nil, fmt.Errorf("apply-jsone: %s: %w", label, err)
		}

		t.TaskDefinition = substituted
	}

	return nil, nil
}
