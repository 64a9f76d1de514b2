package optimizer

import (
	"context"
	"sort"

	"github.com/taskforge-dev/taskforge/graph"
	"github.com/taskforge-dev/taskforge/task"
)

// Decision records what happened to one label during optimization, the
// per-node record the Generator folds into the structured "optimization
// log" artifact.
type Decision struct {
	Label    string
	Action   string // "keep", "remove", "replace"
	TaskID   string // set when Action == "replace"
	Strategy string // strategy name responsible, or "" for "keep"
	Reason   string
}

const (
	actionKeep    = "keep"
	actionRemove  = "remove"
	actionReplace = "replace"
)

// Result is the optimizer's output: the surviving graph
// with replacement task-ids stitched into downstream dependency edges, the
// replacement map, and the full decision log in visit order.
type Result struct {
	Graph        *graph.Graph
	Tasks        map[string]*task.Task
	Replacements map[string]string
	Log          []Decision
}

// Options parameterizes one run of the optimizer.
type Options struct {
	Strategies      map[string]Strategy
	Params          Params
	DoNotOptimize   map[string]bool
	ExistingTasks   map[string]string
	OptimizeTargets bool
	TargetSet       map[string]bool
	// Deadlines supplies, per label, the deadline a replacement for that
	// label's dependents must outlive. Absent
	// entries are treated as "no constraint" (zero).
	Deadlines map[string]Deadline
}

// Optimize runs the removal/replacement pass over the target+deps graph and
// returns the optimized graph plus the decision log. The input set is
// never mutated; the rewrite happens on a clone so the target-graph
// phase stays inspectable for debugging.
func Optimize(ctx context.Context, set *task.Set, opts Options) (*Result, error) {
	order, err := set.Graph.VisitPostorder()
	if err != nil {
		return nil, err
	}

	// Reverse topological order: tasks nothing depends on first, matching
	// the direction removal decisions need: a node's dependents are
	// decided before the node itself.
	reverse := make([]string, len(order))
	for i, l := range order {
		reverse[len(order)-1-i] = l
	}

	removed := map[string]bool{}
	replaced := map[string]string{}
	decisions := make(map[string]Decision, len(reverse))

	// Step 3: seed existing_tasks replacements.
	for label, taskID := range opts.ExistingTasks {
		if !set.Graph.HasNode(label) {
			continue
		}

		replaced[label] = taskID
		decisions[label] = Decision{Label: label, Action: actionReplace, TaskID: taskID, Strategy: "existing_tasks", Reason: "seeded from Parameters.existing_tasks"}
	}

	for _, label := range reverse {
		if _, done := decisions[label]; done {
			continue
		}

		t := set.Tasks[label]

		if opts.DoNotOptimize[label] {
			decisions[label] = Decision{Label: label, Action: actionKeep, Reason: "listed in do_not_optimize"}
			continue
		}

		if !opts.OptimizeTargets && opts.TargetSet[label] && !alwaysTarget(t) {
			decisions[label] = Decision{Label: label, Action: actionKeep, Reason: "optimize_target_tasks is false and task is a target"}
			continue
		}

		dependents := set.Graph.Dependents(label)
		if canRemove(set, label, dependents, removed, replaced) {
			if removeStrategy, arg := namedOptimization(t); removeStrategy != "" {
				strat, ok := opts.Strategies[removeStrategy]
				if ok {
					ok2, err := strat.ShouldRemoveTask(ctx, t, opts.Params, arg)
					if err == nil && ok2 {
						removed[label] = true
						decisions[label] = Decision{Label: label, Action: actionRemove, Strategy: removeStrategy, Reason: "strategy reported the task's work can be skipped"}
						continue
					}
				}
			}
		}

		deadline := strictestDeadline(dependents, opts.Deadlines)
		if replaceStrategy, arg := namedOptimization(t); replaceStrategy != "" {
			strat, ok := opts.Strategies[replaceStrategy]
			if ok {
				taskID, ok2, err := strat.ShouldReplaceTask(ctx, t, opts.Params, deadline, arg)
				if err == nil && ok2 {
					replaced[label] = taskID
					decisions[label] = Decision{Label: label, Action: actionReplace, TaskID: taskID, Strategy: replaceStrategy, Reason: "strategy located an equivalent completed task"}
					continue
				}
			}
		}

		decisions[label] = Decision{Label: label, Action: actionKeep, Reason: "no strategy removed or replaced this task"}
	}

	// Step 5: if-dependencies fixpoint. A task with if_dependencies
	// survives only while at least one of its named edges still points
	// at a kept task.
	applyIfDependenciesFixpoint(set, decisions, removed, replaced)

	g, tasks := rewrite(set, decisions, removed, replaced)

	return &Result{Graph: g, Tasks: tasks, Replacements: replaced, Log: orderedLog(order, decisions)}, nil
}

// canRemove is the step-2 invariant: a node can be removed only if every
// reverse dependent (task depending on it) is itself removed, replaced, or
// reaches this label only through an if_dependencies edge — such a
// dependent tolerates its dependency disappearing and is resolved by the
// later fixpoint pass, so it must not block
// ordinary removal here.
func canRemove(set *task.Set, label string, dependents []string, removed map[string]bool, replaced map[string]string) bool {
	for _, d := range dependents {
		if removed[d] {
			continue
		}

		if _, ok := replaced[d]; ok {
			continue
		}

		if dependsOnlyViaIfDependency(set.Tasks[d], label) {
			continue
		}

		return false
	}

	return true
}

// dependsOnlyViaIfDependency reports whether every edge from dependent to
// label is named in dependent's if_dependencies.
func dependsOnlyViaIfDependency(dependent *task.Task, label string) bool {
	found := false

	for edgeName, dep := range dependent.Dependencies {
		if dep != label {
			continue
		}

		found = true

		if !containsEdgeName(dependent.IfDependencies, edgeName) {
			return false
		}
	}

	return found
}

func containsEdgeName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

// strictestDeadline returns the latest (most demanding) deadline among
// dependents, so a replacement must outlive all of them.
func strictestDeadline(dependents []string, deadlines map[string]Deadline) Deadline {
	var max Deadline

	for _, d := range dependents {
		if dl := deadlines[d]; dl > max {
			max = dl
		}
	}

	return max
}

func namedOptimization(t *task.Task) (string, interface{}) {
	for name, arg := range t.Optimization {
		return name, arg
	}

	return "", nil
}

func alwaysTarget(t *task.Task) bool {
	v, ok := t.Attributes["always_target"]
	if !ok {
		return false
	}

	b, _ := v.(bool)

	return b
}

// applyIfDependenciesFixpoint re-evaluates if-dependent tasks until no
// removal changes another task's kept status, so removals cascade down an
// if-dependency chain.
func applyIfDependenciesFixpoint(set *task.Set, decisions map[string]Decision, removed map[string]bool, replaced map[string]string) {
	for {
		changed := false

		for label, t := range set.Tasks {
			if len(t.IfDependencies) == 0 {
				continue
			}

			if removed[label] {
				continue
			}

			if anyPrimaryKept(t, removed, replaced) {
				continue
			}

			removed[label] = true
			delete(replaced, label)
			decisions[label] = Decision{Label: label, Action: actionRemove, Strategy: "if_dependencies", Reason: "every if-dependency edge target was removed"}
			changed = true
		}

		if !changed {
			return
		}
	}
}

func anyPrimaryKept(t *task.Task, removed map[string]bool, replaced map[string]string) bool {
	for _, edgeName := range t.IfDependencies {
		dep, ok := t.Dependencies[edgeName]
		if !ok {
			continue
		}

		if removed[dep] {
			continue
		}

		return true
	}

	// No if_dependencies edge points at a kept task. Callers only pass
	// tasks that have if_dependencies, so this reports false.
	return len(t.IfDependencies) == 0
}

// rewrite builds the surviving graph: not-removed, not-replaced tasks, with
// downstream dependency references to a replaced label rewritten to point
// at its replacement task-id. It clones set.Graph so the
// pre-optimization target+deps graph stays available for debugging.
func rewrite(set *task.Set, decisions map[string]Decision, removed map[string]bool, replaced map[string]string) (*graph.Graph, map[string]*task.Task) {
	cloned := set.Graph.Clone()
	tasks := make(map[string]*task.Task, len(set.Tasks))

	for label, t := range set.Tasks {
		if removed[label] {
			cloned = cloned.RemoveNode(label)
			continue
		}

		if _, ok := replaced[label]; ok {
			cloned = cloned.RemoveNode(label)
			continue
		}

		tasks[label] = t
	}

	for label, t := range tasks {
		nt := t.Clone()

		for edgeName, dep := range t.Dependencies {
			if repl, ok := replaced[dep]; ok {
				nt.Dependencies[edgeName] = repl
				cloned = cloned.AddEdge(label, edgeName, repl)
			}
		}

		tasks[label] = nt
	}

	return cloned, tasks
}

func orderedLog(order []string, decisions map[string]Decision) []Decision {
	out := make([]Decision, 0, len(decisions))

	seen := map[string]bool{}
	for _, l := range order {
		if d, ok := decisions[l]; ok {
			out = append(out, d)
			seen[l] = true
		}
	}

	var extra []string
	for l := range decisions {
		if !seen[l] {
			extra = append(extra, l)
		}
	}

	sort.Strings(extra)

	for _, l := range extra {
		out = append(out, decisions[l])
	}

	return out
}
