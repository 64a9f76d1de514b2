// Package morph implements the post-optimization mutation pass: a named
// sequence of functions that rewrite wire-format task definitions and may
// add new tasks, whose nodes and edges are merged into the graph before
// the next morph runs. Morphs are
// registered process-wide the same way transform/registry.go registers
// group-by and run-using implementations.
package morph

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/registry"
	"github.com/taskforge-dev/taskforge/task"
)

// Func mutates the task set in place, returning any newly minted tasks
// to be merged into the set by Run.
type Func func(set *task.Set, opts Options) ([]*task.Task, error)

// Registry holds every registered morph, keyed by name. Run applies the
// morphs a Sequence names, in that Sequence's order.
var Registry = registry.New[Func]("morph")

func init() {
	Registry.Register("make-index-task", MakeIndexTask)
	Registry.Register("apply-jsone", ApplyJSONE)
	Registry.Register("add-chain-of-trust", AddChainOfTrust)
}

// Options carries the per-generation context morphs consult.
type Options struct {
	// TaskGroupID is the decision task's id.
	TaskGroupID string

	// IndexPathRegexes names the config.yml taskgraph.index-path-regexes
	// glob patterns; make-index-task moves a task's routes past MaxRoutes
	// that match one of them onto a helper task.
	IndexPathRegexes []string

	// MaxRoutes is the config.yml taskgraph.max-routes limit
	// make-index-task applies to each task's own routes.
	MaxRoutes int

	// RequireChainOfTrust lists labels (or, if empty, means "all tasks")
	// add-chain-of-trust must stamp.
	RequireChainOfTrust map[string]bool

	// JSONE is the collaborator apply-jsone delegates final expression
	// substitution to.
	JSONE Substituter
}

// Substituter performs the final expression-language substitution over a
// task definition. The concrete implementation is out of scope for the
// core; tests supply a fake.
type Substituter interface {
	Substitute(definition map[string]interface{}, attributes map[string]interface{}) (map[string]interface{}, error)
}

// Sequence is an ordered list of morph names to run.
type Sequence []string

// DefaultSequence is the core morph order.
var DefaultSequence = Sequence{"make-index-task", "apply-jsone", "add-chain-of-trust"}

// Run applies every named morph in seq, in order, against set, threading
// each morph's newly added tasks into the set before the next morph runs,
// then validates every surviving task's wire-format definition against the
// platform schema.
func Run(set *task.Set, seq Sequence, opts Options) (*task.Set, error) {
	current := set

	for _, name := range seq {
		fn, ok := Registry.Get(name)
		if !ok {
			return nil, errors.Errorf("morph: unknown morph %q", name)
		}

		added, err := fn(current, opts)
		if err != nil {
			return nil, errors.New(err)
		}

		if len(added) == 0 {
			continue
		}

		next, err := mergeAdded(current, added)
		if err != nil {
			return nil, err
		}

		current = next
	}

	if err := validateAll(current); err != nil {
		return nil, err
	}

	return current, nil
}

// mergeAdded folds newly minted tasks into set, re-resolving
// the graph so the new nodes and any edges they declare are reflected.
func mergeAdded(set *task.Set, added []*task.Task) (*task.Set, error) {
	all := make([]*task.Task, 0, len(set.Tasks)+len(added))
	for _, t := range set.Tasks {
		all = append(all, t)
	}

	all = append(all, added...)

	return task.Resolve(all, task.ResolveOptions{})
}

// validateAll checks every task's TaskDefinition against the generated
// platform schema, the way the platform package's JSON-Schema-from-struct
// reflection is consumed elsewhere (platform/schema.go).
func validateAll(set *task.Set) error {
	schemaLoader := gojsonschema.NewGoLoader(platform.Schema())

	errs := &errors.List{}

	for label, t := range set.Tasks {
		documentLoader := gojsonschema.NewGoLoader(t.TaskDefinition)

		result, err := gojsonschema.Validate(schemaLoader, documentLoader)
		if err != nil {
			errs.Append(fmt.Errorf("morph: validating %q: %w", label, err))
			continue
		}

		if !result.Valid() {
			for _, e := range result.Errors() {
				errs.Append(fmt.Errorf("morph: %q: %s", label, e.String()))
			}
		}
	}

	return errs.ErrorOrNil()
}
