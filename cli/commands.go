package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/taskforge-dev/taskforge/config"
	"github.com/taskforge-dev/taskforge/generator"
	"github.com/taskforge-dev/taskforge/internal/log"
	"github.com/taskforge-dev/taskforge/kind"
	"github.com/taskforge-dev/taskforge/morph"
	"github.com/taskforge-dev/taskforge/optimizer"
	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/task"
)

// phaseFunc evaluates one generation phase and returns its printable
// output: either a []string of labels or a *task.Set.
type phaseFunc func(ctx context.Context, g *generator.Generator) (interface{}, error)

func phaseFull(ctx context.Context, g *generator.Generator) (interface{}, error) {
	return g.FullTaskSet(ctx)
}

func phaseTarget(ctx context.Context, g *generator.Generator) (interface{}, error) {
	return g.TargetTaskSet(ctx)
}

func phaseTargetGraph(ctx context.Context, g *generator.Generator) (interface{}, error) {
	return g.TargetTaskGraph(ctx)
}

func phaseOptimized(ctx context.Context, g *generator.Generator) (interface{}, error) {
	result, err := g.OptimizedTaskGraph(ctx)
	if err != nil {
		return nil, err
	}

	return &task.Set{Tasks: result.Tasks, Graph: result.Graph}, nil
}

func phaseMorphed(ctx context.Context, g *generator.Generator) (interface{}, error) {
	return g.MorphedTaskGraph(ctx)
}

// generation is one parameters set's worth of work: its own Generator,
// its own buffered log, printed under a header once the set completes.
type generation struct {
	source params.Source
	gen    *generator.Generator
	logBuf fmt.Stringer
}

// runPhase implements every phase subcommand: resolve each --parameters
// source, run one generation per source concurrently, and print each
// generation's output under a per-source header. Any failed set makes the
// whole invocation fail, but the other sets still complete.
func runPhase(c *cli.Context, opts *Options, phase phaseFunc) error {
	gens, err := buildGenerations(c, opts, "")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	outputs := make([]interface{}, len(gens))

	var eg errgroup.Group

	ctx := c.Context

	for i, gn := range gens {
		eg.Go(func() error {
			out, err := phase(ctx, gn.gen)
			if err != nil {
				return fmt.Errorf("%s: %w", gn.source, err)
			}

			outputs[i] = out

			return nil
		})
	}

	genErr := eg.Wait()

	for i, gn := range gens {
		if len(gens) > 1 {
			fmt.Fprintf(opts.Stdout, "=== %s\n", gn.source)
		}

		if buffered := gn.logBuf.String(); buffered != "" {
			fmt.Fprint(opts.Stderr, buffered)
		}

		if outputs[i] == nil {
			continue
		}

		if err := printPhaseOutput(c, opts, gn, phase, outputs[i]); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if genErr != nil {
		return cli.Exit(genErr.Error(), 1)
	}

	return nil
}

func printPhaseOutput(c *cli.Context, opts *Options, gn generation, phase phaseFunc, output interface{}) error {
	if revspec := c.String("diff"); revspec != "" {
		set, ok := output.(*task.Set)
		if !ok {
			return fmt.Errorf("--diff is not supported for label-list phases")
		}

		return printDiff(c, opts, gn, phase, set, revspec)
	}

	switch out := output.(type) {
	case []string:
		return printLabels(c, opts.Stdout, out)
	case *task.Set:
		return printTaskSet(c, opts.Stdout, out)
	default:
		return fmt.Errorf("unprintable phase output %T", output)
	}
}

// runDecision evaluates the whole pipeline for a single parameters set,
// writes the phase artifacts, and submits the graph under the decision
// task's id.
func runDecision(c *cli.Context, opts *Options) error {
	rootTaskID := c.String("root-task-id")
	if rootTaskID == "" {
		rootTaskID = os.Getenv("TASK_ID")
	}

	if rootTaskID == "" {
		return cli.Exit("decision requires --root-task-id or $TASK_ID", 2)
	}

	if opts.Client == nil {
		return cli.Exit("decision requires a configured platform client", 2)
	}

	gens, err := buildGenerations(c, opts, rootTaskID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if len(gens) != 1 {
		return cli.Exit("decision takes exactly one parameters set", 2)
	}

	gn := gens[0]
	ctx := c.Context

	assigned, err := gn.gen.Submit(ctx, rootTaskID)

	if buffered := gn.logBuf.String(); buffered != "" {
		fmt.Fprint(opts.Stderr, buffered)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := writeDecisionArtifacts(ctx, c.String("output-dir"), gn.gen, assigned); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// buildGenerations resolves every --parameters source and constructs one
// Generator per source over a shared GraphConfig and kind set.
func buildGenerations(c *cli.Context, opts *Options, taskGroupID string) ([]generation, error) {
	root := c.String("root")

	cfg, err := config.Load(filepath.Join(root, "config.yml"), nil)
	if err != nil {
		return nil, err
	}

	kinds, err := kind.LoadAll(root)
	if err != nil {
		return nil, err
	}

	sources, err := resolveParameterSources(c, opts)
	if err != nil {
		return nil, err
	}

	gens := make([]generation, 0, len(sources))

	for _, src := range sources {
		src = applyFlagOverrides(c, src)

		p, err := params.FromSource(src)
		if err != nil {
			return nil, err
		}

		logger, buf := log.Buffer(c.String("log-level"))

		g := generator.New(cfg, p, kinds, generator.Options{
			Strategies: defaultStrategies(opts),
			MorphOptions: morph.Options{
				TaskGroupID:      taskGroupID,
				IndexPathRegexes: cfg.Taskgraph.IndexPathRegexes,
				MaxRoutes:        cfg.Taskgraph.MaxRoutes,
			},
			Client:            opts.Client,
			Logger:            logger,
			SkipVerifications: c.Bool("no-verify") || c.Bool("fast"),
		})

		gens = append(gens, generation{source: src, gen: g, logBuf: buf})
	}

	return gens, nil
}

func defaultStrategies(opts *Options) map[string]optimizer.Strategy {
	return map[string]optimizer.Strategy{
		"index-search":        optimizer.IndexSearch{Client: opts.Client},
		"skip-unless-changed": optimizer.SkipUnlessChanged{},
	}
}

// resolveParameterSources expands each --parameters value, including the
// directory form where every YAML/JSON file inside is its own set. With
// no --parameters at all, the default-env form produces a single set.
func resolveParameterSources(c *cli.Context, opts *Options) ([]params.Source, error) {
	values := c.StringSlice("parameters")

	if len(values) == 0 {
		src, err := resolveParametersFlag(c.Context, "", opts.Client, opts.VCS)
		if err != nil {
			return nil, err
		}

		return []params.Source{src}, nil
	}

	var sources []params.Source

	for _, value := range values {
		if info, err := os.Stat(value); err == nil && info.IsDir() {
			expanded, err := parameterFilesIn(value)
			if err != nil {
				return nil, err
			}

			sources = append(sources, expanded...)

			continue
		}

		src, err := resolveParametersFlag(c.Context, value, opts.Client, opts.VCS)
		if err != nil {
			return nil, err
		}

		sources = append(sources, src)
	}

	return sources, nil
}

func parameterFilesIn(dir string) ([]params.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		switch filepath.Ext(e.Name()) {
		case ".yml", ".yaml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no parameter files found in %s", dir)
	}

	sources := make([]params.Source, 0, len(files))

	for _, f := range files {
		src, err := params.LoadFile(f)
		if err != nil {
			return nil, err
		}

		sources = append(sources, src)
	}

	return sources, nil
}

// applyFlagOverrides folds --target-kind into the parameters source by
// setting target_kinds and appending the target-kind filter to the
// filter chain.
func applyFlagOverrides(c *cli.Context, src params.Source) params.Source {
	kinds := c.StringSlice("target-kind")
	if len(kinds) == 0 {
		return src
	}

	asIface := make([]interface{}, len(kinds))
	for i, k := range kinds {
		asIface[i] = k
	}

	src = src.Set("target_kinds", asIface)

	filters := []interface{}{}
	if existing, ok := src.Get("filters"); ok {
		if list, ok := existing.([]interface{}); ok {
			filters = list
		}
	}

	if !containsString(filters, "target-kind") {
		filters = append(filters, "target-kind")
	}

	return src.Set("filters", filters)
}

func containsString(list []interface{}, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}

	return false
}

// printDiff regenerates the same phase from a second parameters set
// pinned to revspec and prints the structural difference.
func printDiff(c *cli.Context, opts *Options, gn generation, phase phaseFunc, current *task.Set, revspec string) error {
	if opts.VCS == nil {
		return fmt.Errorf("--diff requires a VCS")
	}

	ctx := c.Context

	baseRev, err := opts.VCS.FindLatestCommonRevision(ctx, revspec, revspec)
	if err != nil {
		return fmt.Errorf("--diff: cannot resolve %s: %w", revspec, err)
	}

	src := gn.source.Set("head_rev", baseRev).Set("base_rev", baseRev)

	filesChanged, err := opts.VCS.GetFilesChanged(ctx, baseRev, baseRev)
	if err == nil {
		asIface := make([]interface{}, len(filesChanged))
		for i, f := range filesChanged {
			asIface[i] = f
		}

		src = src.Set("files_changed", asIface)
	}

	p, err := params.FromSource(src)
	if err != nil {
		return err
	}

	root := c.String("root")

	cfg, err := config.Load(filepath.Join(root, "config.yml"), nil)
	if err != nil {
		return err
	}

	kinds, err := kind.LoadAll(root)
	if err != nil {
		return err
	}

	logger, _ := log.Buffer(c.String("log-level"))

	other := generator.New(cfg, p, kinds, generator.Options{
		Strategies:        defaultStrategies(opts),
		Client:            opts.Client,
		Logger:            logger,
		SkipVerifications: true,
	})

	otherOut, err := phase(ctx, other)
	if err != nil {
		return err
	}

	otherSet, ok := otherOut.(*task.Set)
	if !ok {
		return fmt.Errorf("--diff is not supported for label-list phases")
	}

	diff, err := generator.ComputeDiff(otherSet, current)
	if err != nil {
		return err
	}

	return printJSON(opts.Stdout, diff)
}

// labelMatcher compiles --tasks into a predicate over labels.
func labelMatcher(c *cli.Context) (func(string) bool, error) {
	pattern := c.String("tasks")
	if pattern == "" {
		return func(string) bool { return true }, nil
	}

	re, err := compileTasksRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("--tasks: %w", err)
	}

	return re.MatchString, nil
}

func splitDotted(path string) []string {
	return strings.Split(path, ".")
}
