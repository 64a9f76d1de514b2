// Package errors implements the taxonomy of errors described by the
// generation pipeline: each phase fails with a typed error so callers can
// distinguish a malformed config from a platform outage.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/hashicorp/go-multierror"
)

// New wraps err (or a message) with a stack trace.
func New(v interface{}) error {
	switch e := v.(type) {
	case error:
		return goerrors.Wrap(e, 1)
	default:
		return goerrors.Errorf("%v", e)
	}
}

// Errorf formats a message and attaches a stack trace.
func Errorf(format string, args ...interface{}) error {
	return goerrors.Errorf(format, args...)
}

// List aggregates multiple errors from a single phase (e.g. every schema
// violation found while validating one Task) into one error.
type List struct {
	errs *multierror.Error
}

// Append records err into the list, if non-nil, and returns the receiver
// so calls can be chained.
func (l *List) Append(err error) *List {
	if err == nil {
		return l
	}

	if l.errs == nil {
		l.errs = &multierror.Error{}
	}

	l.errs = multierror.Append(l.errs, err)

	return l
}

// ErrorOrNil returns nil if the list is empty.
func (l *List) ErrorOrNil() error {
	if l == nil || l.errs == nil {
		return nil
	}

	return l.errs.ErrorOrNil()
}

// Len reports how many errors have been appended.
func (l *List) Len() int {
	if l == nil || l.errs == nil {
		return 0
	}

	return len(l.errs.Errors)
}

// ConfigError signals a missing or malformed config.yml/kind.yml.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Path, e.Reason)
}

// SchemaError reports a validation failure at a transform checkpoint,
// naming the descriptor, the offending value, and what was expected.
type SchemaError struct {
	Descriptor string
	Value      interface{}
	Expected   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: got %v, expected %s", e.Descriptor, e.Value, e.Expected)
}

// LoaderError reports an unknown loader reference, a broken tasks-from path,
// or a duplicate task name within a kind.
type LoaderError struct {
	Kind   string
	Reason string
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("loader error in kind %q: %s", e.Kind, e.Reason)
}

// TransformError wraps a panic/error raised by a transform callable with the
// kind and task label that were being processed.
type TransformError struct {
	Kind      string
	Label     string
	Transform string
	Cause     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed for kind %q, task %q: %v", e.Transform, e.Kind, e.Label, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// DependencyError reports unresolved or cyclic dependencies, naming the
// offending labels.
type DependencyError struct {
	Labels []string
	Reason string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency error: %s (labels: %v)", e.Reason, e.Labels)
}

// CycleError is a DependencyError specialization naming the exact cycle.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Cycle)
}

// OptimizerError is logged and treated as "cannot replace"/"cannot remove"
// for the strategy that raised it; it never fails generation outright.
type OptimizerError struct {
	Label    string
	Strategy string
	Cause    error
}

func (e *OptimizerError) Error() string {
	return fmt.Sprintf("optimizer strategy %q failed for %q: %v", e.Strategy, e.Label, e.Cause)
}

func (e *OptimizerError) Unwrap() error { return e.Cause }

// PlatformError reports a network/API failure from the PlatformClient,
// after the retry policy has been exhausted.
type PlatformError struct {
	Op    string
	Cause error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform error during %s: %v", e.Op, e.Cause)
}

func (e *PlatformError) Unwrap() error { return e.Cause }

// ParameterError reports a missing or ill-typed parameter at construction.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter error: %s: %s", e.Field, e.Reason)
}
