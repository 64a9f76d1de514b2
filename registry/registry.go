// Package registry implements the process-wide write-once registries the
// pipeline needs: strategies, loaders, morphs, target-tasks-methods,
// filters, group-by, and run-using implementations all register here once
// at transform-module import time, and duplicate registration is fatal.
// Registration may run concurrently from package init() functions across
// however many transform modules a GraphConfig names.
package registry

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is a named, write-once map from string key to a value of type
// V. Registering a key twice is a programming error, not a runtime
// condition to recover from — it panics immediately at import time.
type Registry[V any] struct {
	name string
	m    *xsync.MapOf[string, V]
}

// New creates an empty registry with the given name, used only to make
// panic messages legible.
func New[V any](name string) *Registry[V] {
	return &Registry[V]{name: name, m: xsync.NewMapOf[string, V]()}
}

// Register installs key -> value. It panics if key is already registered.
func (r *Registry[V]) Register(key string, value V) {
	_, loaded := r.m.LoadOrStore(key, value)
	if loaded {
		panic(fmt.Sprintf("registry %s: duplicate registration of %q", r.name, key))
	}
}

// Get looks up key.
func (r *Registry[V]) Get(key string) (V, bool) {
	return r.m.Load(key)
}

// MustGet looks up key, panicking if absent.
func (r *Registry[V]) MustGet(key string) V {
	v, ok := r.Get(key)
	if !ok {
		panic(fmt.Sprintf("registry %s: no such entry %q", r.name, key))
	}

	return v
}

// Keys returns every registered key, in no particular order.
func (r *Registry[V]) Keys() []string {
	var out []string

	r.m.Range(func(k string, _ V) bool {
		out = append(out, k)
		return true
	})

	return out
}

// Len reports how many entries are registered.
func (r *Registry[V]) Len() int {
	return r.m.Size()
}
