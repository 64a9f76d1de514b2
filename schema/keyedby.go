package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/taskforge-dev/taskforge/internal/errors"
)

// KeyedBy is the tagged-variant (either a leaf or a by-<attr> mapping)
// representation of a `by-<attr>:` conditional value.
type KeyedBy struct {
	Attr  string
	Cases map[string]interface{}
}

const defaultCaseKey = "default"

// AsKeyedBy inspects v and, if it is a single-key map whose key matches
// `by-<attr>`, returns its KeyedBy form.
func AsKeyedBy(v interface{}) (KeyedBy, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return KeyedBy{}, false
	}

	for k, inner := range m {
		if !strings.HasPrefix(k, "by-") {
			return KeyedBy{}, false
		}

		cases, ok := inner.(map[string]interface{})
		if !ok {
			return KeyedBy{}, false
		}

		return KeyedBy{Attr: strings.TrimPrefix(k, "by-"), Cases: cases}, true
	}

	return KeyedBy{}, false
}

// Context supplies the attribute values resolve-keyed-by matches against.
// Ctx is consulted before Container.
type Context struct {
	Ctx       map[string]interface{}
	Container map[string]interface{}
}

func (c Context) lookup(attr string) (interface{}, bool) {
	if v, ok := c.Ctx[attr]; ok {
		return v, true
	}

	v, ok := c.Container[attr]

	return v, ok
}

// ResolveKeyedBy resolves by-<attr> conditionals in place: it locates the
// value at dottedPath within container, and if it is a by-<attr> mapping,
// replaces it in place with the matched case — recursing so a nested by-*
// inside the matched case resolves innermost-first before this call
// returns.
func ResolveKeyedBy(container map[string]interface{}, dottedPath string, descriptor string, ctx Context) error {
	ctx.Container = container

	locs, err := Locate(container, dottedPath)
	if err != nil {
		return err
	}

	errs := &errors.List{}

	for _, loc := range locs {
		resolved, err := resolveValue(loc.Value, descriptor, ctx)
		if err != nil {
			errs.Append(err)
			continue
		}

		loc.Set(resolved)
	}

	return errs.ErrorOrNil()
}

func resolveValue(v interface{}, descriptor string, ctx Context) (interface{}, error) {
	kb, ok := AsKeyedBy(v)
	if !ok {
		return v, nil
	}

	attrVal, present := ctx.lookup(kb.Attr)
	if !present {
		return nil, &errors.SchemaError{
			Descriptor: descriptor,
			Value:      v,
			Expected:   fmt.Sprintf("attribute %q to be available for by-%s resolution", kb.Attr, kb.Attr),
		}
	}

	attrStr := fmt.Sprintf("%v", attrVal)

	resolved, matched := matchCase(kb.Cases, attrStr)
	if !matched {
		return nil, &errors.SchemaError{
			Descriptor: descriptor,
			Value:      attrVal,
			Expected:   fmt.Sprintf("one of the by-%s cases (or a default)", kb.Attr),
		}
	}

	// Innermost-first: resolve any nested by-* within the chosen case
	// before returning it.
	return resolveValue(resolved, descriptor, ctx)
}

// matchCase picks the winning case: exact match first, then each
// non-default key as a regex against the whole value, then "default".
func matchCase(cases map[string]interface{}, attrVal string) (interface{}, bool) {
	if v, ok := cases[attrVal]; ok {
		return v, true
	}

	keys := make([]string, 0, len(cases))
	for k := range cases {
		if k != defaultCaseKey {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	for _, k := range keys {
		re, err := regexp.Compile("^(?:" + k + ")$")
		if err != nil {
			continue
		}

		if re.MatchString(attrVal) {
			return cases[k], true
		}
	}

	if v, ok := cases[defaultCaseKey]; ok {
		return v, true
	}

	return nil, false
}
