package task

import (
	"sort"

	"github.com/taskforge-dev/taskforge/graph"
	"github.com/taskforge-dev/taskforge/internal/errors"
)

// dockerImageEdgeName is the reserved edge name; user tasks may not use
// it, only the docker-image transform's own emission may.
const dockerImageEdgeName = "docker-image"

// Set is the full label -> Task map plus its dependency graph, the result
// of the six-step dependency resolution.
type Set struct {
	Tasks map[string]*Task
	Graph *graph.Graph
}

// ResolveOptions parameterizes the per-task edge-count limit and whether docker-image-transform-emitted
// edges are present (AllowDockerImageEdge).
type ResolveOptions struct {
	MaxDependencies      int // 0 means unlimited
	AllowDockerImageEdge func(label, edgeName string) bool
}

// Resolve runs dependency resolution over tasks, producing the full task
// graph or failing with a *errors.DependencyError / *errors.CycleError.
func Resolve(tasks []*Task, opts ResolveOptions) (*Set, error) {
	// Step 1: build the full label -> Task map.
	byLabel := make(map[string]*Task, len(tasks))

	for _, t := range tasks {
		if _, dup := byLabel[t.Label]; dup {
			return nil, &errors.DependencyError{Labels: []string{t.Label}, Reason: "duplicate task label"}
		}

		byLabel[t.Label] = t
	}

	g := graph.New()
	for label := range byLabel {
		g = g.AddNode(label)
	}

	allow := opts.AllowDockerImageEdge
	if allow == nil {
		allow = func(string, string) bool { return false }
	}

	for _, t := range tasks {
		edgeCount := len(t.Dependencies) + len(t.SoftDependencies)
		if opts.MaxDependencies > 0 && edgeCount > opts.MaxDependencies {
			return nil, &errors.DependencyError{
				Labels: []string{t.Label},
				Reason: "exceeds the configured per-task edge-count limit",
			}
		}

		// Step 2: verify every edge target exists.
		for edgeName, depLabel := range t.Dependencies {
			if edgeName == dockerImageEdgeName && !allow(t.Label, edgeName) {
				return nil, &errors.DependencyError{
					Labels: []string{t.Label},
					Reason: "edge name \"docker-image\" is reserved for the docker-image transform",
				}
			}

			if _, ok := byLabel[depLabel]; !ok {
				return nil, &errors.DependencyError{
					Labels: []string{t.Label, depLabel},
					Reason: "dependency edge target does not exist",
				}
			}

			g = g.AddEdge(t.Label, edgeName, depLabel)
		}

		// Step 3: resolve soft_dependencies and if_dependencies the same
		// way — existence-checked, but not necessarily graph edges that
		// participate in cycle detection the same way hard deps do; here
		// they are added as distinctly-named edges so VisitPostorder still
		// sees them.
		for edgeName, depLabel := range t.SoftDependencies {
			if _, ok := byLabel[depLabel]; !ok {
				return nil, &errors.DependencyError{
					Labels: []string{t.Label, depLabel},
					Reason: "soft dependency edge target does not exist",
				}
			}

			g = g.AddEdge(t.Label, "soft:"+edgeName, depLabel)
		}

		for _, ifDep := range t.IfDependencies {
			if _, ok := t.Dependencies[ifDep]; !ok {
				if _, ok := t.SoftDependencies[ifDep]; !ok {
					return nil, &errors.DependencyError{
						Labels: []string{t.Label},
						Reason: "if_dependencies entry " + ifDep + " is not one of this task's dependency edge names",
					}
				}
			}
		}
	}

	// Step 4: build the graph; detect cycles.
	if _, err := g.VisitPostorder(); err != nil {
		return nil, err
	}

	return &Set{Tasks: byLabel, Graph: g}, nil
}

// Labels returns the sorted labels of tasks, a small determinism helper
// used when serializing artifacts.
func Labels(tasks map[string]*Task) []string {
	out := make([]string, 0, len(tasks))
	for l := range tasks {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}
