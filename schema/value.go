// Package schema implements the declarative schema validator and the
// by-<attribute> keyed-by resolver.
// Configuration is decoded from YAML/JSON into the dynamic
// map[string]interface{} / []interface{} / scalar shape and validated
// in that form; config here is dynamic and schema-driven, not statically
// typed. Task attribute values that need real typed comparison go
// through github.com/zclconf/go-cty instead; see params.Parameters.Cty.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is one value reached by Locate, along with the containing
// map/slice and key/index needed to write a replacement back — callers use
// this to mutate in place once a keyed-by is resolved.
type Location struct {
	// Parent is the map or []interface{} holding the value.
	Parent interface{}
	// Key is the map key (for a map parent) or the string index (for a
	// slice parent, parsed with strconv.Atoi by callers that need it).
	Key   string
	Value interface{}
}

// Locate resolves dotted-path (e.g. "retry.max-attempts" or
// "fetches[].url") against data and returns every leaf location reached.
func Locate(data map[string]interface{}, dottedPath string) ([]Location, error) {
	segments := strings.Split(dottedPath, ".")
	return locateSegments([]Location{{Value: data}}, segments)
}

func locateSegments(cur []Location, segments []string) ([]Location, error) {
	if len(segments) == 0 {
		return cur, nil
	}

	seg := segments[0]
	rest := segments[1:]

	fanOut := strings.HasSuffix(seg, "[]")
	key := strings.TrimSuffix(seg, "[]")

	var next []Location

	for _, loc := range cur {
		m, ok := loc.Value.(map[string]interface{})
		if !ok {
			// Nothing to navigate into; silently skip, the same
			// permissiveness subtree resolution grants entries
			// lacking any by- key.
			continue
		}

		v, present := m[key]
		if !present {
			continue
		}

		if !fanOut {
			next = append(next, Location{Parent: m, Key: key, Value: v})
			continue
		}

		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("path segment %q expects a list, got %T", seg, v)
		}

		for i, elem := range list {
			next = append(next, Location{Parent: list, Key: strconv.Itoa(i), Value: elem})
		}
	}

	return locateSegments(next, rest)
}

// Set writes value back into loc's parent container.
func (loc Location) Set(value interface{}) {
	switch parent := loc.Parent.(type) {
	case map[string]interface{}:
		parent[loc.Key] = value
	case []interface{}:
		idx, err := strconv.Atoi(loc.Key)
		if err == nil && idx >= 0 && idx < len(parent) {
			parent[idx] = value
		}
	}
}
