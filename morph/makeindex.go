package morph

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"

	"github.com/taskforge-dev/taskforge/task"
)

// MakeIndexTask is the "make-index-task" morph: when a single
// task's `routes` carry more index routes than opts.MaxRoutes allows, the
// excess routes matching one of opts.IndexPathRegexes are collapsed onto a
// new helper task (depending on the original) that issues them at runtime.
// Routes past the limit that match no pattern stay on the original task.
func MakeIndexTask(set *task.Set, opts Options) ([]*task.Task, error) {
	if opts.MaxRoutes <= 0 || len(opts.IndexPathRegexes) == 0 {
		return nil, nil
	}

	patterns := make([]glob.Glob, 0, len(opts.IndexPathRegexes))

	for _, p := range opts.IndexPathRegexes {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("make-index-task: compiling pattern %q: %w", p, err)
		}

		patterns = append(patterns, g)
	}

	var added []*task.Task

	for _, label := range sortedTaskLabels(set) {
		t := set.Tasks[label]

		routes, overflow := splitRoutes(t, patterns, opts.MaxRoutes)
		if len(overflow) == 0 {
			continue
		}

		if t.TaskDefinition == nil {
			t.TaskDefinition = map[string]interface{}{}
		}

		t.TaskDefinition["routes"] = routes

		helper := helperIndexTask(t, overflow)
		added = append(added, helper)
	}

	return added, nil
}

// splitRoutes returns the routes t keeps directly and the index routes
// that exceed maxRoutes and match one of patterns, in route order.
func splitRoutes(t *task.Task, patterns []glob.Glob, maxRoutes int) ([]interface{}, []string) {
	raw, _ := t.TaskDefinition["routes"].([]interface{})
	if len(raw) <= maxRoutes {
		return raw, nil
	}

	var kept []interface{}

	var overflow []string

	for i, r := range raw {
		route, _ := r.(string)

		if i < maxRoutes || !matchesAny(route, patterns) {
			kept = append(kept, r)
			continue
		}

		overflow = append(overflow, route)
	}

	return kept, overflow
}

func matchesAny(route string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(route) {
			return true
		}
	}

	return false
}

// helperIndexTask builds the new task that issues the overflowed routes at
// run time, depending on the original task so it only runs once the
// original's artifact exists to index.
func helperIndexTask(original *task.Task, routes []string) *task.Task {
	label := original.Label + "-index"

	return &task.Task{
		Kind:        "index-task",
		Label:       label,
		Description: "issues overflow index routes for " + original.Label,
		Attributes:  map[string]interface{}{"index_for": original.Label},
		Dependencies: map[string]string{
			"primary": original.Label,
		},
		TaskDefinition: map[string]interface{}{
			"routes":       routesToInterfaces(routes),
			"dependencies": []string{original.Label},
		},
	}
}

func routesToInterfaces(routes []string) []interface{} {
	out := make([]interface{}, len(routes))
	for i, r := range routes {
		out[i] = r
	}

	return out
}

func sortedTaskLabels(set *task.Set) []string {
	out := make([]string, 0, len(set.Tasks))
	for l := range set.Tasks {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}
