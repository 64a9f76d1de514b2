package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"
	ctyyaml "github.com/zclconf/go-cty-yaml"

	"github.com/taskforge-dev/taskforge/generator"
	"github.com/taskforge-dev/taskforge/task"
)

func compileTasksRegexp(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func printLabels(c *cli.Context, w io.Writer, labels []string) error {
	match, err := labelMatcher(c)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(labels))

	for _, l := range labels {
		if match(l) {
			kept = append(kept, l)
		}
	}

	if c.Bool("json") {
		return printJSON(w, kept)
	}

	for _, l := range kept {
		fmt.Fprintln(w, l)
	}

	return nil
}

func printTaskSet(c *cli.Context, w io.Writer, set *task.Set) error {
	match, err := labelMatcher(c)
	if err != nil {
		return err
	}

	if !c.Bool("json") {
		for _, l := range task.Labels(set.Tasks) {
			if match(l) {
				fmt.Fprintln(w, l)
			}
		}

		return nil
	}

	records := map[string]interface{}{}

	for _, l := range task.Labels(set.Tasks) {
		if !match(l) {
			continue
		}

		records[l] = taskRecord(set.Tasks[l])
	}

	for _, path := range c.StringSlice("exclude-key") {
		for _, rec := range records {
			excludeKey(rec, splitDotted(path))
		}
	}

	return printJSON(w, records)
}

// taskRecord is the printable shape of one Task, matching the per-phase
// JSON artifact keyed by label.
func taskRecord(t *task.Task) map[string]interface{} {
	rec := map[string]interface{}{
		"kind":       t.Kind,
		"label":      t.Label,
		"attributes": t.Attributes,
		"task":       t.TaskDefinition,
	}

	if t.Description != "" {
		rec["description"] = t.Description
	}

	if len(t.Dependencies) > 0 {
		rec["dependencies"] = t.Dependencies
	}

	if len(t.SoftDependencies) > 0 {
		rec["soft-dependencies"] = t.SoftDependencies
	}

	if len(t.IfDependencies) > 0 {
		rec["if-dependencies"] = t.IfDependencies
	}

	if len(t.Optimization) > 0 {
		rec["optimization"] = t.Optimization
	}

	return rec
}

// excludeKey removes the value at the dotted path from a nested record,
// recursing through maps only; a missing segment is a no-op.
func excludeKey(v interface{}, path []string) {
	m, ok := v.(map[string]interface{})
	if !ok || len(path) == 0 {
		return
	}

	if len(path) == 1 {
		delete(m, path[0])
		return
	}

	excludeKey(m[path[0]], path[1:])
}

// writeDecisionArtifacts persists the phase outputs the decision command
// publishes. The directory is flock-guarded so concurrent multi-parameter
// workers sharing an output directory don't interleave writes.
func writeDecisionArtifacts(ctx context.Context, dir string, g *generator.Generator, assigned map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(dir, ".lock"))

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("cannot lock artifact directory %s: %v", dir, err)
	}
	defer lock.Unlock()

	full, err := g.FullTaskSet(ctx)
	if err != nil {
		return err
	}

	target, err := g.TargetTaskSet(ctx)
	if err != nil {
		return err
	}

	optimized, err := g.OptimizedTaskGraph(ctx)
	if err != nil {
		return err
	}

	morphed, err := g.MorphedTaskGraph(ctx)
	if err != nil {
		return err
	}

	fs := osfs.New(dir)

	paramsCty := g.Parameters().Cty()

	paramsYAML, err := ctyyaml.Marshal(paramsCty)
	if err != nil {
		return err
	}

	if err := util.WriteFile(fs, "parameters.yml", paramsYAML, 0o644); err != nil {
		return err
	}

	artifacts := map[string]interface{}{
		"full-task-graph.json":  setRecords(full),
		"target-tasks.json":     target,
		"optimization-log.json": generator.OptimizationLog(optimized),
		"task-graph.json":       generator.TaskGraphArtifact(morphed),
		"label-to-taskid.json":  generator.LabelToTaskID(morphed, optimized.Replacements, assigned),
		"to-run.json":           generator.ToRunArtifact(morphed),
	}

	for name, content := range artifacts {
		buf, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return err
		}

		if err := util.WriteFile(fs, name, append(buf, '\n'), 0o644); err != nil {
			return err
		}
	}

	return nil
}

func setRecords(set *task.Set) map[string]interface{} {
	out := make(map[string]interface{}, len(set.Tasks))
	for _, l := range task.Labels(set.Tasks) {
		out[l] = taskRecord(set.Tasks[l])
	}

	return out
}
