package optimizer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/optimizer"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/task"
)

type fakeParams struct{ files []string }

func (f fakeParams) FilesChanged() []string { return f.files }

func mustSet(t *testing.T, tasks ...*task.Task) *task.Set {
	t.Helper()

	set, err := task.Resolve(tasks, task.ResolveOptions{})
	require.NoError(t, err)

	return set
}

// An upstream task replaced via index-search leaves its dependents
// pointing at the replacement task-id.
func TestOptimizeIndexSearchReplacesUpstream(t *testing.T) {
	a := &task.Task{Kind: "hello", Label: "hello-a", Optimization: map[string]interface{}{"index-search": []string{"foo.bar.baz"}}}
	b := &task.Task{Kind: "hello", Label: "hello-b", Dependencies: map[string]string{"edge1": "hello-a"}}

	set := mustSet(t, a, b)

	client := platform.NewFake()
	client.Index["foo.bar.baz"] = "TASKID-A"
	client.Statuses["TASKID-A"] = platform.TaskStatus{TaskID: "TASKID-A", State: platform.StateCompleted, Expires: 1000}

	result, err := optimizer.Optimize(context.Background(), set, optimizer.Options{
		Strategies: map[string]optimizer.Strategy{
			"index-search": optimizer.IndexSearch{Client: client},
		},
		Params:          fakeParams{},
		OptimizeTargets: true,
		TargetSet:       map[string]bool{"hello-a": true, "hello-b": true},
	})
	require.NoError(t, err)

	assert.False(t, result.Graph.HasNode("hello-a"))
	require.True(t, result.Graph.HasNode("hello-b"))
	assert.Equal(t, "TASKID-A", result.Tasks["hello-b"].Dependencies["edge1"])
}

// skip-unless-changed removes a task only when none of the changed files
// matches its patterns.
func TestOptimizeSkipUnlessChanged(t *testing.T) {
	removed := &task.Task{Kind: "k", Label: "k-removed", Optimization: map[string]interface{}{"skip-unless-changed": []string{"src/**"}}}
	kept := &task.Task{Kind: "k", Label: "k-kept", Optimization: map[string]interface{}{"skip-unless-changed": []string{"docs/**"}}}

	set := mustSet(t, removed, kept)

	result, err := optimizer.Optimize(context.Background(), set, optimizer.Options{
		Strategies: map[string]optimizer.Strategy{
			"skip-unless-changed": optimizer.SkipUnlessChanged{},
		},
		Params:          fakeParams{files: []string{"docs/index.md"}},
		OptimizeTargets: true,
		TargetSet:       map[string]bool{"k-removed": true, "k-kept": true},
	})
	require.NoError(t, err)

	assert.False(t, result.Graph.HasNode("k-removed"))
	assert.True(t, result.Graph.HasNode("k-kept"))
}

// Removal cascades along an if-dependency chain until the fixpoint:
// #9: A -> B -> C, A and B gate on their dependency via if_dependencies; C
// is removed, so B collapses, so A collapses too.
func TestOptimizeIfDependenciesFixpoint(t *testing.T) {
	c := &task.Task{Kind: "k", Label: "k-c", Optimization: map[string]interface{}{"skip-unless-changed": []string{"src/**"}}}
	b := &task.Task{
		Kind: "k", Label: "k-b",
		Dependencies:   map[string]string{"primary": "k-c"},
		IfDependencies: []string{"primary"},
	}
	a := &task.Task{
		Kind: "k", Label: "k-a",
		Dependencies:   map[string]string{"primary": "k-b"},
		IfDependencies: []string{"primary"},
	}

	set := mustSet(t, a, b, c)

	result, err := optimizer.Optimize(context.Background(), set, optimizer.Options{
		Strategies: map[string]optimizer.Strategy{
			"skip-unless-changed": optimizer.SkipUnlessChanged{},
		},
		Params:          fakeParams{files: []string{"docs/index.md"}},
		OptimizeTargets: true,
		TargetSet:       map[string]bool{"k-a": true, "k-b": true, "k-c": true},
	})
	require.NoError(t, err)

	assert.False(t, result.Graph.HasNode("k-c"))
	assert.False(t, result.Graph.HasNode("k-b"))
	assert.False(t, result.Graph.HasNode("k-a"))
}

// TestOptimizeDoNotOptimizeIsHonored ensures labels in do_not_optimize
// always survive regardless of what any strategy would otherwise decide.
func TestOptimizeDoNotOptimizeIsHonored(t *testing.T) {
	a := &task.Task{Kind: "k", Label: "k-a", Optimization: map[string]interface{}{"skip-unless-changed": []string{"src/**"}}}

	set := mustSet(t, a)

	result, err := optimizer.Optimize(context.Background(), set, optimizer.Options{
		Strategies: map[string]optimizer.Strategy{
			"skip-unless-changed": optimizer.SkipUnlessChanged{},
		},
		Params:          fakeParams{files: []string{"docs/index.md"}},
		DoNotOptimize:   map[string]bool{"k-a": true},
		OptimizeTargets: true,
		TargetSet:       map[string]bool{"k-a": true},
	})
	require.NoError(t, err)

	assert.True(t, result.Graph.HasNode("k-a"))
}

// Identical inputs produce identical outputs.
func TestOptimizeDeterministic(t *testing.T) {
	build := func() *task.Set {
		a := &task.Task{Kind: "hello", Label: "hello-a", Optimization: map[string]interface{}{"index-search": []string{"foo.bar.baz"}}}
		b := &task.Task{Kind: "hello", Label: "hello-b", Dependencies: map[string]string{"edge1": "hello-a"}}
		return mustSet(t, a, b)
	}

	run := func() *optimizer.Result {
		client := platform.NewFake()
		client.Index["foo.bar.baz"] = "TASKID-A"
		client.Statuses["TASKID-A"] = platform.TaskStatus{TaskID: "TASKID-A", State: platform.StateCompleted, Expires: 1000}

		result, err := optimizer.Optimize(context.Background(), build(), optimizer.Options{
			Strategies: map[string]optimizer.Strategy{
				"index-search": optimizer.IndexSearch{Client: client},
			},
			Params:          fakeParams{},
			OptimizeTargets: true,
			TargetSet:       map[string]bool{"hello-a": true, "hello-b": true},
		})
		require.NoError(t, err)

		return result
	}

	r1, r2 := run(), run()

	assert.Equal(t, r1.Graph.Nodes(), r2.Graph.Nodes())
	assert.Equal(t, r1.Replacements, r2.Replacements)
}
