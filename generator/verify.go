package generator

import (
	"fmt"

	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/task"
)

// Phase names verifications can hook into. Each phase runs its hooks
// after it is first evaluated; a hook failure fails the generation.
const (
	PhaseFull      = "full_task_graph"
	PhaseTarget    = "target_task_set"
	PhaseTargetDep = "target_task_graph"
	PhaseOptimized = "optimized_task_graph"
	PhaseMorphed   = "morphed_task_graph"
)

// VerificationFunc inspects one phase's output. The labels argument is
// only populated for the target_task_set phase, where no Set exists yet.
type VerificationFunc func(set *task.Set, labels []string, p *params.Parameters) error

// verifications holds per-phase hook lists. Unlike the named registries,
// hooks are additive: several hooks may watch the same phase, so this is
// a plain append-only map populated during startup registration.
var verifications = map[string][]VerificationFunc{}

// RegisterVerification appends fn to the named phase's hook list. The
// Generator runs hooks in registration order after the phase is first
// evaluated, unless SkipVerifications is set.
func RegisterVerification(phase string, fn VerificationFunc) {
	verifications[phase] = append(verifications[phase], fn)
}

func init() {
	RegisterVerification(PhaseFull, verifyRoutesUnique)
	RegisterVerification(PhaseMorphed, verifyDependencyCount)
}

// verifyRoutesUnique rejects a full graph where two tasks advertise the
// same index route, which would make index-search optimization ambiguous.
func verifyRoutesUnique(set *task.Set, _ []string, _ *params.Parameters) error {
	seen := map[string]string{}

	for _, label := range task.Labels(set.Tasks) {
		t := set.Tasks[label]

		routes, _ := t.TaskDefinition["routes"].([]interface{})
		for _, r := range routes {
			route, ok := r.(string)
			if !ok {
				continue
			}

			if prev, dup := seen[route]; dup {
				return fmt.Errorf("route %q claimed by both %s and %s", route, prev, label)
			}

			seen[route] = label
		}
	}

	return nil
}

// verifyDependencyCount re-checks the wire-format dependency list after
// morphs ran, since morphs may rewrite the `dependencies` key directly.
func verifyDependencyCount(set *task.Set, _ []string, _ *params.Parameters) error {
	const platformMax = 9999

	for _, label := range task.Labels(set.Tasks) {
		n := 0

		switch deps := set.Tasks[label].TaskDefinition["dependencies"].(type) {
		case []interface{}:
			n = len(deps)
		case []string:
			n = len(deps)
		}

		if n > platformMax {
			return fmt.Errorf("task %s has %d dependencies, over the platform limit of %d", label, n, platformMax)
		}
	}

	return nil
}

func (g *Generator) runVerifications(phase string, set *task.Set, labels []string) error {
	if g.opts.SkipVerifications {
		return nil
	}

	for _, hook := range verifications[phase] {
		if err := hook(set, labels, g.parameters); err != nil {
			return fmt.Errorf("verification failed after %s: %w", phase, err)
		}
	}

	return nil
}
