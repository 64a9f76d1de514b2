// Package generator implements the Generator: the object
// that exposes the six pipeline phases as memoized attributes, wiring
// together config, params, kind, transform, task, optimizer, morph, and
// the PlatformClient/VCS collaborators.
package generator

import (
	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/registry"
	"github.com/taskforge-dev/taskforge/task"
)

// TargetTasksMethodFunc selects the initial candidate labels out of the
// full task set.
type TargetTasksMethodFunc func(full *task.Set, p *params.Parameters) ([]string, error)

// FilterFunc narrows (or otherwise transforms) a candidate label list,
// chained after the target_tasks_method.
type FilterFunc func(labels []string, full *task.Set, p *params.Parameters) ([]string, error)

// TargetTasksMethodRegistry and FilterRegistry are the process-wide,
// write-once registries for these two extension points.
var (
	TargetTasksMethodRegistry = registry.New[TargetTasksMethodFunc]("target-tasks-method")
	FilterRegistry            = registry.New[FilterFunc]("filter")
)

func init() {
	TargetTasksMethodRegistry.Register("all", targetAll)
	TargetTasksMethodRegistry.Register("default", targetAll)

	// "target_tasks_method" is the conventional no-op filter name
	// params.DefaultEnv seeds into Parameters.filters.
	FilterRegistry.Register("target_tasks_method", identityFilter)
	FilterRegistry.Register("target-kind", filterTargetKind)
}

func targetAll(full *task.Set, _ *params.Parameters) ([]string, error) {
	return task.Labels(full.Tasks), nil
}

func identityFilter(labels []string, _ *task.Set, _ *params.Parameters) ([]string, error) {
	return labels, nil
}

// filterTargetKind narrows the target set to tasks of the kinds named in
// the target_kinds parameter, the filter backing the CLI's --target-kind
// flag. With no target_kinds set it passes everything through.
func filterTargetKind(labels []string, full *task.Set, p *params.Parameters) ([]string, error) {
	kinds := p.StringList("target_kinds")
	if len(kinds) == 0 {
		return labels, nil
	}

	wanted := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	out := labels[:0]

	for _, l := range labels {
		if t := full.Tasks[l]; t != nil && wanted[t.Kind] {
			out = append(out, l)
		}
	}

	return out, nil
}

func resolveTargetTasksMethod(name string) (TargetTasksMethodFunc, error) {
	fn, ok := TargetTasksMethodRegistry.Get(name)
	if !ok {
		return nil, errors.Errorf("generator: unknown target_tasks_method %q", name)
	}

	return fn, nil
}

func resolveFilters(names []string) ([]FilterFunc, error) {
	fns := make([]FilterFunc, 0, len(names))

	for _, n := range names {
		fn, ok := FilterRegistry.Get(n)
		if !ok {
			return nil, errors.Errorf("generator: unknown filter %q", n)
		}

		fns = append(fns, fn)
	}

	return fns, nil
}
