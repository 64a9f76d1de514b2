package generator

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/taskforge-dev/taskforge/config"
	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/internal/log"
	"github.com/taskforge-dev/taskforge/kind"
	"github.com/taskforge-dev/taskforge/morph"
	"github.com/taskforge-dev/taskforge/optimizer"
	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/task"
	"github.com/taskforge-dev/taskforge/transform"
)

// Options configures one Generator; everything here is fixed
// for the life of a generation, mirroring GraphConfig's own immutability.
type Options struct {
	Strategies    map[string]optimizer.Strategy
	MorphSequence morph.Sequence
	MorphOptions  morph.Options
	Client        platform.Client
	Logger        log.Logger

	// SkipVerifications disables the per-phase verification hooks, the
	// fast path the CLI exposes as --no-verify / --fast.
	SkipVerifications bool

	// WriteArtifacts asks transforms to emit per-kind debug artifacts.
	WriteArtifacts bool
}

// Generator exposes each of the six pipeline phases as a method; accessing
// a phase forces evaluation of it and all prior phases, with
// memoization. It is not safe for concurrent use — generation is
// single-threaded within one Parameters set.
type Generator struct {
	graphConfig *config.GraphConfig
	parameters  *params.Parameters
	kinds       map[string]*kind.Kind
	opts        Options

	fullSet      *task.Set
	targetLabels []string
	targetSet    *task.Set
	optResult    *optimizer.Result
	morphedSet   *task.Set
}

// New builds a Generator over an already-loaded GraphConfig, validated
// Parameters, and the repository's Kinds.
func New(cfg *config.GraphConfig, p *params.Parameters, kinds map[string]*kind.Kind, opts Options) *Generator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Generator{graphConfig: cfg, parameters: p, kinds: kinds, opts: opts}
}

// Parameters returns the validated Parameters.
func (g *Generator) Parameters() *params.Parameters { return g.parameters }

// FullTaskSet evaluates the "full_task_set / full_task_graph" phase: every
// Kind is loaded in kind-dependency topological order, its Default/
// Transform loader stubs run through its TransformEngine sequence, and the
// resulting Tasks assembled into one dependency-resolved Set.
func (g *Generator) FullTaskSet(ctx context.Context) (*task.Set, error) {
	if g.fullSet != nil {
		return g.fullSet, nil
	}

	order, err := kind.Order(g.kinds)
	if err != nil {
		return nil, err
	}

	byLabel := map[string]*task.Task{}

	// kind.Order returns dependencies-before-dependents (graph.VisitPostorder
	// convention), exactly the order a kind's kind-dependencies need to have
	// already run.
	for _, name := range order {
		k := g.kinds[name]

		tasks, err := g.loadKindTasks(k, byLabel)
		if err != nil {
			return nil, err
		}

		for _, t := range tasks {
			if _, dup := byLabel[t.Label]; dup {
				return nil, &errors.DependencyError{Labels: []string{t.Label}, Reason: "duplicate task label across kinds"}
			}

			byLabel[t.Label] = t
		}
	}

	all := make([]*task.Task, 0, len(byLabel))
	for _, t := range byLabel {
		all = append(all, t)
	}

	set, err := task.Resolve(all, task.ResolveOptions{
		MaxDependencies: g.graphConfig.Taskgraph.MaxDependencies,
	})
	if err != nil {
		return nil, err
	}

	if err := g.runVerifications(PhaseFull, set, nil); err != nil {
		return nil, err
	}

	g.fullSet = set

	return set, nil
}

// loadKindTasks runs one Kind's transform sequence over its raw stubs,
// producing frozen Tasks.
func (g *Generator) loadKindTasks(k *kind.Kind, alreadyLoaded map[string]*task.Task) ([]*task.Task, error) {
	kindDeps := map[string]*task.Task{}

	for label, t := range alreadyLoaded {
		for _, depKind := range k.KindDependencies {
			if t.Kind == depKind {
				kindDeps[label] = t
			}
		}
	}

	stubs, err := kind.RunLoader(k, g.parameters, kindDeps)
	if err != nil {
		return nil, err
	}

	seq, err := transform.Resolve(k.Name, k.Transforms)
	if err != nil {
		return nil, err
	}

	cfg := &transform.Config{
		Kind:                k.Name,
		KindConfig:          k.Config,
		Params:              g.parameters,
		GraphConfig:         g.graphConfig,
		KindDependencyTasks: kindDeps,
		KindDir:             k.Dir,
		WriteArtifacts:      g.opts.WriteArtifacts,
	}

	stream := seq.Run(cfg, transform.FromStubs(stubs))

	out, err := transform.Collect(stream)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(out))

	for _, stub := range out {
		t, err := task.FromStub(k.Name, stub)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, t)
	}

	return tasks, nil
}

// TargetTaskSet evaluates the "target_task_set" phase: the
// target_tasks_method selects candidate labels, each named filter narrows
// them in sequence, and enable_always_target adds back always_target
// tasks the method/filters dropped.
func (g *Generator) TargetTaskSet(ctx context.Context) ([]string, error) {
	if g.targetLabels != nil {
		return g.targetLabels, nil
	}

	full, err := g.FullTaskSet(ctx)
	if err != nil {
		return nil, err
	}

	methodName := g.parameters.String("target_tasks_method")
	if methodName == "" {
		methodName = "default"
	}

	method, err := resolveTargetTasksMethod(methodName)
	if err != nil {
		return nil, err
	}

	labels, err := method(full, g.parameters)
	if err != nil {
		return nil, err
	}

	filters, err := resolveFilters(g.parameters.StringList("filters"))
	if err != nil {
		return nil, err
	}

	for _, f := range filters {
		labels, err = f(labels, full, g.parameters)
		if err != nil {
			return nil, err
		}
	}

	labels = withAlwaysTarget(full, labels, g.parameters)

	sort.Strings(labels)

	if err := g.runVerifications(PhaseTarget, full, labels); err != nil {
		return nil, err
	}

	g.targetLabels = labels

	return labels, nil
}

// withAlwaysTarget honors enable_always_target: it is
// either a bool (apply to every kind) or a list of kind names to restrict
// it to.
func withAlwaysTarget(full *task.Set, labels []string, p *params.Parameters) []string {
	enabled, kinds := enableAlwaysTarget(p)
	if !enabled {
		return labels
	}

	selected := map[string]bool{}
	for _, l := range labels {
		selected[l] = true
	}

	for label, t := range full.Tasks {
		if selected[label] {
			continue
		}

		v, ok := t.Attributes["always_target"]
		if !ok {
			continue
		}

		if always, _ := v.(bool); !always {
			continue
		}

		if len(kinds) > 0 && !kinds[t.Kind] {
			continue
		}

		selected[label] = true
		labels = append(labels, label)
	}

	return labels
}

func enableAlwaysTarget(p *params.Parameters) (bool, map[string]bool) {
	v, ok := p.Get("enable_always_target")
	if !ok {
		return false, nil
	}

	switch t := v.(type) {
	case bool:
		return t, nil
	case []interface{}:
		kinds := map[string]bool{}

		for _, e := range t {
			if s, ok := e.(string); ok {
				kinds[s] = true
			}
		}

		return len(kinds) > 0, kinds
	default:
		return false, nil
	}
}

// TargetTaskGraph evaluates the "target_task_graph" phase:
// the target set closed under hard dependencies only — soft_dependencies
// are explicitly excluded from this closure.
func (g *Generator) TargetTaskGraph(ctx context.Context) (*task.Set, error) {
	if g.targetSet != nil {
		return g.targetSet, nil
	}

	full, err := g.FullTaskSet(ctx)
	if err != nil {
		return nil, err
	}

	labels, err := g.TargetTaskSet(ctx)
	if err != nil {
		return nil, err
	}

	closure := hardClosure(full, labels)

	set, err := task.Subset(full, closure)
	if err != nil {
		return nil, err
	}

	if err := g.runVerifications(PhaseTargetDep, set, nil); err != nil {
		return nil, err
	}

	g.targetSet = set

	return set, nil
}

// hardClosure walks only each task's hard Dependencies, never
// SoftDependencies, starting from roots.
func hardClosure(full *task.Set, roots []string) map[string]bool {
	visited := map[string]bool{}

	var stack []string

	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			stack = append(stack, r)
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t := full.Tasks[n]
		if t == nil {
			continue
		}

		for _, dep := range t.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}

	return visited
}

// OptimizedTaskGraph evaluates the "optimized_task_graph" phase, applied to the target+deps graph.
func (g *Generator) OptimizedTaskGraph(ctx context.Context) (*optimizer.Result, error) {
	if g.optResult != nil {
		return g.optResult, nil
	}

	targetDeps, err := g.TargetTaskGraph(ctx)
	if err != nil {
		return nil, err
	}

	targetLabels, err := g.TargetTaskSet(ctx)
	if err != nil {
		return nil, err
	}

	targetSet := make(map[string]bool, len(targetLabels))
	for _, l := range targetLabels {
		targetSet[l] = true
	}

	strategies, err := optimizer.WithSuite(g.opts.Strategies, g.parameters.String("optimize_strategies"))
	if err != nil {
		return nil, err
	}

	result, err := optimizer.Optimize(ctx, targetDeps, optimizer.Options{
		Strategies:      strategies,
		Params:          g.parameters,
		DoNotOptimize:   g.parameters.DoNotOptimize(),
		ExistingTasks:   g.parameters.ExistingTasks(),
		OptimizeTargets: g.parameters.Bool("optimize_target_tasks"),
		TargetSet:       targetSet,
	})
	if err != nil {
		return nil, err
	}

	optSet := &task.Set{Tasks: result.Tasks, Graph: result.Graph}
	if err := g.runVerifications(PhaseOptimized, optSet, nil); err != nil {
		return nil, err
	}

	g.optResult = result

	return result, nil
}

// MorphedTaskGraph evaluates the "morphed_task_graph" phase.
func (g *Generator) MorphedTaskGraph(ctx context.Context) (*task.Set, error) {
	if g.morphedSet != nil {
		return g.morphedSet, nil
	}

	opt, err := g.OptimizedTaskGraph(ctx)
	if err != nil {
		return nil, err
	}

	set := &task.Set{Tasks: opt.Tasks, Graph: opt.Graph}

	seq := g.opts.MorphSequence
	if seq == nil {
		seq = morph.DefaultSequence
	}

	morphed, err := morph.Run(set, seq, g.opts.MorphOptions)
	if err != nil {
		return nil, err
	}

	if err := g.runVerifications(PhaseMorphed, morphed, nil); err != nil {
		return nil, err
	}

	g.morphedSet = morphed

	return morphed, nil
}

// Submit runs the Generator through every phase, mints a task-id for each
// surviving label, rewrites wire-format dependency lists from labels to
// those ids (replacement task-ids pass through untouched), and submits the
// batch atomically via PlatformClient. The returned map is the
// label-to-taskid assignment, which also feeds the label-to-taskid.json
// artifact.
func (g *Generator) Submit(ctx context.Context, rootTaskID string) (map[string]string, error) {
	morphed, err := g.MorphedTaskGraph(ctx)
	if err != nil {
		return nil, err
	}

	if g.opts.Client == nil {
		return nil, fmt.Errorf("generator: submit requires a PlatformClient")
	}

	assigned := make(map[string]string, len(morphed.Tasks))
	for label := range morphed.Tasks {
		assigned[label] = uuid.NewString()
	}

	defs := make(map[string]platform.TaskDefinition, len(morphed.Tasks))

	for label, t := range morphed.Tasks {
		def := cloneDefinition(t.TaskDefinition)
		rewriteWireDependencies(def, assigned)
		defs[assigned[label]] = def
	}

	g.opts.Logger.Infof("submitting %d tasks", len(defs))

	if err := g.opts.Client.CreateTasks(ctx, defs, rootTaskID); err != nil {
		return nil, err
	}

	return assigned, nil
}

func cloneDefinition(def map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(def))
	for k, v := range def {
		out[k] = v
	}

	return out
}

// rewriteWireDependencies maps the wire `dependencies` entries that are
// still labels onto their assigned task-ids. Entries with no assignment
// are replacement task-ids stitched in by the optimizer and stay as-is.
func rewriteWireDependencies(def map[string]interface{}, assigned map[string]string) {
	switch deps := def["dependencies"].(type) {
	case []interface{}:
		out := make([]interface{}, len(deps))

		for i, d := range deps {
			if label, ok := d.(string); ok {
				if id, assignedID := assigned[label]; assignedID {
					out[i] = id
					continue
				}
			}

			out[i] = d
		}

		def["dependencies"] = out
	case []string:
		out := make([]string, len(deps))

		for i, d := range deps {
			if id, ok := assigned[d]; ok {
				out[i] = id
			} else {
				out[i] = d
			}
		}

		def["dependencies"] = out
	}
}
