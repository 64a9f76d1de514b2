// Package transform implements the TransformEngine: a
// composable pipeline of plain functions over a stream of task stubs, plus
// the built-in transforms every kind's Default loader wires in.
// The pipeline is modeled as a Go 1.23 iterator, iter.Seq2[Stub, error],
// rather than a slice, so a validation failure partway through a kind's
// working set surfaces immediately and memory stays proportional to one
// kind.
package transform

import (
	"iter"
	"sort"

	"github.com/taskforge-dev/taskforge/config"
	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/schema"
	"github.com/taskforge-dev/taskforge/task"
)

// Stub is the dynamic, not-yet-frozen representation of a Task as it flows
// through one kind's TransformSequence. The built-in
// "task" transform is responsible for producing a Stub shaped so
// task.FromStub can freeze it into a *task.Task.
type Stub = map[string]interface{}

// Stream is a lazy sequence of (Stub, error) pairs. A non-nil error ends
// the sequence; callers must stop consuming once they observe one.
type Stream = iter.Seq2[Stub, error]

// Config is everything a transform
// callable may consult besides the Stub itself.
type Config struct {
	Kind                string
	KindConfig          map[string]interface{}
	Params              *params.Parameters
	GraphConfig         *config.GraphConfig
	KindDependencyTasks map[string]*task.Task
	KindDir             string
	WriteArtifacts      bool
}

// Func is one callable of a TransformSequence: it consumes the upstream
// stream and emits zero or more Stubs.
type Func func(cfg *Config, in Stream) Stream

// Sequence is an ordered TransformSequence.
type Sequence struct {
	Name  string
	Steps []Func
}

// Run chains every step of the sequence, in order, over in.
func (s Sequence) Run(cfg *Config, in Stream) Stream {
	cur := in

	for _, fn := range s.Steps {
		cur = fn(cfg, cur)
	}

	return cur
}

// FromStubs builds a Stream over a label->Stub map in deterministic
// (sorted-label) order, the shape kind.Kind.LoadStubs produces.
func FromStubs(stubs map[string]Stub) Stream {
	labels := make([]string, 0, len(stubs))
	for l := range stubs {
		labels = append(labels, l)
	}

	sort.Strings(labels)

	return func(yield func(Stub, error) bool) {
		for _, l := range labels {
			if !yield(stubs[l], nil) {
				return
			}
		}
	}
}

// Collect drains s fully into a slice, stopping (and returning) at the
// first error encountered.
func Collect(s Stream) ([]Stub, error) {
	var out []Stub

	var ferr error

	s(func(t Stub, err error) bool {
		if err != nil {
			ferr = err
			return false
		}

		out = append(out, t)

		return true
	})

	return out, ferr
}

// Wrap attaches kind/label/transform context to a transform failure.
func Wrap(kind, label, transformName string, err error) error {
	if err == nil {
		return nil
	}

	return &errors.TransformError{Kind: kind, Label: label, Transform: transformName, Cause: err}
}

// Checkpoint installs a validation schema at this point in the
// sequence: every Stub passing through must
// validate against obj, else the sequence fails fast with a SchemaError.
func Checkpoint(descriptor string, obj schema.Object) Func {
	return func(_ *Config, in Stream) Stream {
		return func(yield func(Stub, error) bool) {
			in(func(t Stub, err error) bool {
				if err != nil {
					return yield(nil, err)
				}

				if verr := schema.Validate(obj, t); verr != nil {
					return yield(nil, &errors.SchemaError{Descriptor: descriptor, Value: t, Expected: "to pass checkpoint validation"})
				}

				return yield(t, nil)
			})
		}
	}
}

// Map returns a Func that applies fn independently to every Stub, the
// common shape for a transform that mutates-in-place without fan-out or
// filtering.
func Map(name string, fn func(cfg *Config, t Stub) (Stub, error)) Func {
	return func(cfg *Config, in Stream) Stream {
		return func(yield func(Stub, error) bool) {
			in(func(t Stub, err error) bool {
				if err != nil {
					return yield(nil, err)
				}

				out, ferr := fn(cfg, t)
				if ferr != nil {
					return yield(nil, Wrap(cfg.Kind, labelOf(t), name, ferr))
				}

				return yield(out, nil)
			})
		}
	}
}

// FanOut returns a Func that expands each Stub into zero or more Stubs,
// the shape the matrix/chunking/from-deps transforms need.
func FanOut(name string, fn func(cfg *Config, t Stub) ([]Stub, error)) Func {
	return func(cfg *Config, in Stream) Stream {
		return func(yield func(Stub, error) bool) {
			in(func(t Stub, err error) bool {
				if err != nil {
					return yield(nil, err)
				}

				out, ferr := fn(cfg, t)
				if ferr != nil {
					return yield(nil, Wrap(cfg.Kind, labelOf(t), name, ferr))
				}

				for _, o := range out {
					if !yield(o, nil) {
						return false
					}
				}

				return true
			})
		}
	}
}

func labelOf(t Stub) string {
	if t == nil {
		return ""
	}

	l, _ := t["label"].(string)

	return l
}
