package task

// Subset rebuilds a Set restricted to labels, the way the Generator derives
// target_task_graph from full_task_graph. Soft-dependency and
// if-dependency edges whose target fell outside labels are dropped rather
// than left dangling, since Resolve requires every edge target — soft or
// hard — to exist among the tasks it is given.
func Subset(set *Set, labels map[string]bool) (*Set, error) {
	tasks := make([]*Task, 0, len(labels))

	for label := range labels {
		t, ok := set.Tasks[label]
		if !ok {
			continue
		}

		clone := t.Clone()

		for edgeName, dep := range clone.SoftDependencies {
			if !labels[dep] {
				delete(clone.SoftDependencies, edgeName)
			}
		}

		clone.IfDependencies = pruneIfDependencies(clone)

		tasks = append(tasks, clone)
	}

	return Resolve(tasks, ResolveOptions{})
}

// pruneIfDependencies drops if_dependencies entries whose named edge no
// longer resolves to either a hard or soft dependency (because Subset just
// removed it above).
func pruneIfDependencies(t *Task) []string {
	if len(t.IfDependencies) == 0 {
		return t.IfDependencies
	}

	out := make([]string, 0, len(t.IfDependencies))

	for _, edgeName := range t.IfDependencies {
		if _, ok := t.Dependencies[edgeName]; ok {
			out = append(out, edgeName)
			continue
		}

		if _, ok := t.SoftDependencies[edgeName]; ok {
			out = append(out, edgeName)
		}
	}

	return out
}
